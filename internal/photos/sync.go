package photos

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/storage"
)

// Result summarizes one album sync.
type Result struct {
	// Imported counts newly downloaded photos.
	Imported int
	// Skipped counts items left on the provider because the household's
	// storage quota was reached.
	Skipped int
}

// Syncer imports new album photos into local storage. Items already imported
// are skipped by provider ID, so re-running a sweep is cheap.
type Syncer struct {
	sources repository.PhotoSourceRepository
	photos  repository.PhotoRepository
	store   *storage.DiskStore
	fetcher Fetcher
	logger  *logrus.Logger
	now     func() time.Time
}

// NewSyncer builds a photo album syncer.
func NewSyncer(sources repository.PhotoSourceRepository, photos repository.PhotoRepository,
	store *storage.DiskStore, fetcher Fetcher, logger *logrus.Logger) *Syncer {
	return &Syncer{
		sources: sources,
		photos:  photos,
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// SyncSource pulls all pages of the album, downloading items that are not
// imported yet. Downloads stop once the household quota would be exceeded;
// the remaining items are counted as skipped and retried on a later sweep.
func (s *Syncer) SyncSource(ctx context.Context, source *models.PhotoSource) (Result, error) {
	imported, err := s.photos.ExternalIDsBySource(ctx, source.ID)
	if err != nil {
		return Result{}, err
	}
	used, err := s.photos.TotalSizeByHousehold(ctx, source.HouseholdID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	pageToken := ""
	quotaFull := false
	for {
		page, err := s.fetcher.ListAlbum(ctx, source.AlbumID, pageToken)
		if err != nil {
			return result, fmt.Errorf("failed to list album %s: %w", source.AlbumID, err)
		}

		for _, item := range page.Items {
			if imported[item.ID] {
				continue
			}
			if quotaFull {
				result.Skipped++
				continue
			}

			data, err := s.fetcher.Download(ctx, item)
			if err != nil {
				return result, err
			}
			if err := storage.NewQuota(used).CheckUpload(int64(len(data))); err != nil {
				s.logger.WithField("source_id", source.ID).
					Warn("photo quota reached, deferring remaining album items")
				quotaFull = true
				result.Skipped++
				continue
			}

			path, size, err := s.store.Save(bytes.NewReader(data), item.ContentType)
			if err != nil {
				return result, err
			}
			sourceID := source.ID
			_, err = s.photos.Create(ctx, &models.Photo{
				HouseholdID:   source.HouseholdID,
				PhotoSourceID: &sourceID,
				ExternalID:    item.ID,
				StoragePath:   path,
				SizeBytes:     size,
				ContentType:   item.ContentType,
				Enabled:       true,
			})
			if err != nil {
				if derr := s.store.Delete(path); derr != nil {
					s.logger.WithError(derr).Warn("failed to remove orphaned download")
				}
				return result, fmt.Errorf("failed to record synced photo: %w", err)
			}
			used += size
			result.Imported++
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := s.sources.MarkSynced(ctx, source.ID, s.now()); err != nil {
		return result, err
	}
	return result, nil
}
