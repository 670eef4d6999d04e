package photos

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/storage"
)

type fakePhotoRepo struct {
	repository.PhotoRepository

	existing map[string]bool
	used     int64
	created  []*models.Photo
}

func (f *fakePhotoRepo) ExternalIDsBySource(ctx context.Context, sourceID int64) (map[string]bool, error) {
	if f.existing == nil {
		return map[string]bool{}, nil
	}
	return f.existing, nil
}

func (f *fakePhotoRepo) TotalSizeByHousehold(ctx context.Context, householdID int64) (int64, error) {
	return f.used, nil
}

func (f *fakePhotoRepo) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	photo.ID = int64(len(f.created) + 1)
	f.created = append(f.created, photo)
	return photo, nil
}

type fakePhotoSourceRepo struct {
	repository.PhotoSourceRepository

	synced []int64
}

func (f *fakePhotoSourceRepo) MarkSynced(ctx context.Context, id int64, syncedAt time.Time) error {
	f.synced = append(f.synced, id)
	return nil
}

type fakeFetcher struct {
	pages map[string]Page // keyed by page token
	data  map[string][]byte
}

func (f *fakeFetcher) ListAlbum(ctx context.Context, albumID, pageToken string) (Page, error) {
	return f.pages[pageToken], nil
}

func (f *fakeFetcher) Download(ctx context.Context, photo RemotePhoto) ([]byte, error) {
	return f.data[photo.ID], nil
}

func newTestSyncer(t *testing.T, photoRepo *fakePhotoRepo, sourceRepo *fakePhotoSourceRepo, fetcher Fetcher) *Syncer {
	t.Helper()
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSyncer(sourceRepo, photoRepo, store, fetcher, logger)
}

func TestSyncSourceImportsNewItems(t *testing.T) {
	photoRepo := &fakePhotoRepo{existing: map[string]bool{"p1": true}}
	sourceRepo := &fakePhotoSourceRepo{}
	fetcher := &fakeFetcher{
		pages: map[string]Page{
			"": {
				Items:         []RemotePhoto{{ID: "p1", ContentType: "image/jpeg"}, {ID: "p2", ContentType: "image/jpeg"}},
				NextPageToken: "page2",
			},
			"page2": {
				Items: []RemotePhoto{{ID: "p3", ContentType: "image/png"}},
			},
		},
		data: map[string][]byte{"p2": []byte("aaaa"), "p3": []byte("bbbbbb")},
	}

	syncer := newTestSyncer(t, photoRepo, sourceRepo, fetcher)
	result, err := syncer.SyncSource(context.Background(), &models.PhotoSource{ID: 7, HouseholdID: 3, AlbumID: "a"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, photoRepo.created, 2)
	assert.Equal(t, "p2", photoRepo.created[0].ExternalID)
	assert.Equal(t, int64(4), photoRepo.created[0].SizeBytes)
	assert.Equal(t, int64(3), photoRepo.created[0].HouseholdID)
	require.NotNil(t, photoRepo.created[0].PhotoSourceID)
	assert.Equal(t, int64(7), *photoRepo.created[0].PhotoSourceID)
	assert.Equal(t, []int64{7}, sourceRepo.synced)
}

func TestSyncSourceStopsAtQuota(t *testing.T) {
	// One byte of headroom: the first download no longer fits.
	photoRepo := &fakePhotoRepo{used: storage.QuotaBytes - 1}
	sourceRepo := &fakePhotoSourceRepo{}
	fetcher := &fakeFetcher{
		pages: map[string]Page{
			"": {Items: []RemotePhoto{{ID: "p1", ContentType: "image/jpeg"}, {ID: "p2", ContentType: "image/jpeg"}}},
		},
		data: map[string][]byte{"p1": []byte("xx"), "p2": []byte("yy")},
	}

	syncer := newTestSyncer(t, photoRepo, sourceRepo, fetcher)
	result, err := syncer.SyncSource(context.Background(), &models.PhotoSource{ID: 1, HouseholdID: 1, AlbumID: "a"})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, photoRepo.created)
	// Deferred items must be retried later, so the sweep still completes.
	assert.Equal(t, []int64{1}, sourceRepo.synced)
}
