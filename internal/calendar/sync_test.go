package calendar

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/secrets"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// fakeSourceRepo records the sync-state mutations the Syncer performs.
type fakeSourceRepo struct {
	repository.CalendarSourceRepository

	updated       *models.CalendarSource
	cursor        string
	syncedAt      time.Time
	syncStateSet  bool
	recordedError string
	disconnected  bool
}

func (f *fakeSourceRepo) Update(ctx context.Context, src *models.CalendarSource) (*models.CalendarSource, error) {
	f.updated = src
	return src, nil
}

func (f *fakeSourceRepo) UpdateSyncState(ctx context.Context, id int64, cursor string, syncedAt time.Time) error {
	f.cursor = cursor
	f.syncedAt = syncedAt
	f.syncStateSet = true
	return nil
}

func (f *fakeSourceRepo) RecordSyncError(ctx context.Context, id int64, message string) error {
	f.recordedError = message
	return nil
}

func (f *fakeSourceRepo) Disconnect(ctx context.Context, id int64) error {
	f.disconnected = true
	return nil
}

// fakeEventRepo records upserts and deletions.
type fakeEventRepo struct {
	repository.EventRepository

	upserted []*models.Event
	deleted  []string
}

func (f *fakeEventRepo) UpsertBySource(ctx context.Context, sourceID int64, events []*models.Event) (int, error) {
	f.upserted = append(f.upserted, events...)
	return len(events), nil
}

func (f *fakeEventRepo) DeleteBySourceExternalIDs(ctx context.Context, sourceID int64, ids []string) (int, error) {
	f.deleted = append(f.deleted, ids...)
	return len(ids), nil
}

// fakeProvider serves scripted pages keyed by (cursor, pageToken). When
// cursorErr is set, any request carrying a cursor fails with it while
// window requests still succeed.
type fakeProvider struct {
	pages      map[string]EventsPage
	cursorErr  error
	windowSeen *ListOptions
	calls      int
}

func (f *fakeProvider) ListEvents(ctx context.Context, opts ListOptions) (EventsPage, error) {
	f.calls++
	if f.cursorErr != nil && opts.Cursor != "" {
		return EventsPage{}, f.cursorErr
	}
	if opts.Cursor == "" && f.windowSeen == nil {
		o := opts
		f.windowSeen = &o
	}
	key := opts.Cursor + "|" + opts.PageToken
	page, ok := f.pages[key]
	if !ok {
		return EventsPage{}, nil
	}
	return page, nil
}

type fakeRefresher struct {
	token  Token
	err    error
	called bool
}

func (f *fakeRefresher) Refresh(ctx context.Context, t Token) (Token, error) {
	f.called = true
	if f.err != nil {
		return Token{}, f.err
	}
	return f.token, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testCipher(t *testing.T) *secrets.Cipher {
	t.Helper()
	c, err := secrets.NewCipher(testCipherKey)
	require.NoError(t, err)
	return c
}

func testSource(t *testing.T, c *secrets.Cipher, cursor string) *models.CalendarSource {
	t.Helper()
	access, err := c.Encrypt("access-token")
	require.NoError(t, err)
	refresh, err := c.Encrypt("refresh-token")
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	return &models.CalendarSource{
		ID:           7,
		HouseholdID:  1,
		Provider:     models.CalendarProviderGoogle,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenExpiry:  &expiry,
		SyncCursor:   cursor,
		Enabled:      true,
	}
}

func newTestSyncer(sources *fakeSourceRepo, events *fakeEventRepo, refresher TokenRefresher, provider Provider, cipher *secrets.Cipher) *Syncer {
	return NewSyncer(sources, events, refresher,
		func(accessToken string) Provider { return provider },
		cipher, quietLogger())
}

func TestSyncSourceIncremental(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "cursor-1")

	provider := &fakeProvider{pages: map[string]EventsPage{
		"cursor-1|": {
			Events: []RemoteEvent{
				{ID: "a", Title: "Dentist", Start: time.Now()},
				{ID: "gone", Cancelled: true},
			},
			NextPageToken: "p2",
		},
		"cursor-1|p2": {
			Events:        []RemoteEvent{{ID: "b", Title: "Soccer", Start: time.Now()}},
			NextSyncToken: "cursor-2",
		},
	}}

	sources := &fakeSourceRepo{}
	events := &fakeEventRepo{}
	refresher := &fakeRefresher{}
	syncer := newTestSyncer(sources, events, refresher, provider, cipher)

	result, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 2, result.Upserted)
	assert.Equal(t, 1, result.Deleted)
	assert.False(t, result.FullSync)
	assert.False(t, refresher.called, "valid token should not be refreshed")

	require.Len(t, events.upserted, 2)
	assert.Equal(t, "a", events.upserted[0].ExternalID)
	require.NotNil(t, events.upserted[0].CalendarSourceID)
	assert.Equal(t, int64(7), *events.upserted[0].CalendarSourceID)
	assert.Equal(t, []string{"gone"}, events.deleted)

	require.True(t, sources.syncStateSet)
	assert.Equal(t, "cursor-2", sources.cursor)
}

func TestSyncSourceCancelledEventDeletesNotUpserts(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "cursor-1")

	provider := &fakeProvider{pages: map[string]EventsPage{
		"cursor-1|": {
			Events:        []RemoteEvent{{ID: "dead", Cancelled: true}},
			NextSyncToken: "cursor-2",
		},
	}}

	sources := &fakeSourceRepo{}
	events := &fakeEventRepo{}
	syncer := newTestSyncer(sources, events, &fakeRefresher{}, provider, cipher)

	result, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Upserted)
	assert.Equal(t, 1, result.Deleted)
	assert.Empty(t, events.upserted)
	assert.Equal(t, []string{"dead"}, events.deleted)
}

func TestSyncSourceExpiredCursorFallsBackToFullSync(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "stale-cursor")

	// Any request carrying a cursor fails with ErrCursorExpired; the
	// window request succeeds.
	provider := &fakeProvider{
		cursorErr: ErrCursorExpired,
		pages: map[string]EventsPage{
			"|": {
				Events:        []RemoteEvent{{ID: "a", Title: "Dinner", Start: time.Now()}},
				NextSyncToken: "fresh-cursor",
			},
		},
	}

	sources := &fakeSourceRepo{}
	events := &fakeEventRepo{}
	syncer := newTestSyncer(sources, events, &fakeRefresher{}, provider, cipher)

	result, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.True(t, result.FullSync)
	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, "fresh-cursor", sources.cursor)

	// The fallback request used a bounded window, not the stale cursor.
	require.NotNil(t, provider.windowSeen)
	assert.WithinDuration(t, time.Now().Add(-windowBack), provider.windowSeen.From, time.Minute)
	assert.WithinDuration(t, time.Now().Add(windowForward), provider.windowSeen.To, time.Minute)
}

func TestSyncSourceFirstSyncUsesWindow(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "")

	provider := &fakeProvider{pages: map[string]EventsPage{
		"|": {NextSyncToken: "first-cursor"},
	}}

	sources := &fakeSourceRepo{}
	syncer := newTestSyncer(sources, &fakeEventRepo{}, &fakeRefresher{}, provider, cipher)

	result, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	assert.True(t, result.FullSync)
	assert.Equal(t, "first-cursor", sources.cursor)
	require.NotNil(t, provider.windowSeen)
}

func TestSyncSourceRevokedDisconnects(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "cursor-1")
	expired := time.Now().Add(-time.Hour)
	src.TokenExpiry = &expired

	sources := &fakeSourceRepo{}
	events := &fakeEventRepo{}
	refresher := &fakeRefresher{err: ErrRevoked}
	provider := &fakeProvider{}
	syncer := newTestSyncer(sources, events, refresher, provider, cipher)

	result, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err, "revocation is a distinguished result, not an error")

	assert.Equal(t, StatusDisconnected, result.Status)
	assert.True(t, sources.disconnected)
	assert.Equal(t, 0, provider.calls, "no provider call after revocation")
	assert.False(t, sources.syncStateSet)
}

func TestSyncSourceTransientRefreshFailure(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "cursor-1")
	expired := time.Now().Add(-time.Hour)
	src.TokenExpiry = &expired

	sources := &fakeSourceRepo{}
	refresher := &fakeRefresher{err: errors.New("connection reset")}
	syncer := newTestSyncer(sources, &fakeEventRepo{}, refresher, &fakeProvider{}, cipher)

	_, err := syncer.SyncSource(context.Background(), src)
	require.Error(t, err)

	assert.False(t, sources.disconnected, "transient failures must not disconnect the source")
	assert.NotEmpty(t, sources.recordedError)
}

func TestSyncSourceRefreshStoresNewToken(t *testing.T) {
	cipher := testCipher(t)
	src := testSource(t, cipher, "cursor-1")
	expired := time.Now().Add(-time.Hour)
	src.TokenExpiry = &expired

	refresher := &fakeRefresher{token: Token{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}}
	provider := &fakeProvider{pages: map[string]EventsPage{
		"cursor-1|": {NextSyncToken: "cursor-2"},
	}}

	sources := &fakeSourceRepo{}
	syncer := newTestSyncer(sources, &fakeEventRepo{}, refresher, provider, cipher)

	_, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	require.True(t, refresher.called)
	require.NotNil(t, sources.updated)

	access, err := cipher.Decrypt(sources.updated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)
	refresh, err := cipher.Decrypt(sources.updated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", refresh)
}
