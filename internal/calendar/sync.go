package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/secrets"
)

// Full-window bounds used when no sync cursor is stored.
const (
	windowBack    = 30 * 24 * time.Hour
	windowForward = 90 * 24 * time.Hour
)

// Status reports how a sync run ended.
type Status string

const (
	// StatusOK means the source was synced and its cursor advanced.
	StatusOK Status = "ok"
	// StatusDisconnected means the provider revoked our credentials; the
	// source has been disabled and must be reconnected by the user.
	StatusDisconnected Status = "disconnected"
)

// Result summarizes one sync run for a calendar source.
type Result struct {
	Status   Status `json:"status"`
	Upserted int    `json:"upserted"`
	Deleted  int    `json:"deleted"`
	FullSync bool   `json:"full_sync"`
}

// Syncer reconciles local event records with a remote calendar provider.
// It refreshes credentials, walks provider pages, partitions results into
// upserts and deletions, and persists the new cursor. Transient errors are
// classified and returned without retrying; retry is the scheduled job's
// responsibility.
type Syncer struct {
	sources   repository.CalendarSourceRepository
	events    repository.EventRepository
	refresher TokenRefresher
	factory   ProviderFactory
	cipher    *secrets.Cipher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewSyncer wires a Syncer.
func NewSyncer(
	sources repository.CalendarSourceRepository,
	events repository.EventRepository,
	refresher TokenRefresher,
	factory ProviderFactory,
	cipher *secrets.Cipher,
	logger *logrus.Logger,
) *Syncer {
	return &Syncer{
		sources:   sources,
		events:    events,
		refresher: refresher,
		factory:   factory,
		cipher:    cipher,
		logger:    logger,
		now:       time.Now,
	}
}

// SyncSource runs one sync for a calendar source. Revoked credentials
// disable the source and yield StatusDisconnected rather than an error; an
// expired cursor is dropped and the run falls back to a full window sync.
func (s *Syncer) SyncSource(ctx context.Context, src *models.CalendarSource) (Result, error) {
	log := s.logger.WithFields(logrus.Fields{
		"calendar_source_id": src.ID,
		"provider":           src.Provider,
	})

	token, err := s.decryptToken(src)
	if err != nil {
		return Result{}, err
	}

	if src.TokenExpired(s.now()) {
		token, err = s.refresher.Refresh(ctx, token)
		if errors.Is(err, ErrRevoked) {
			log.Warn("credentials revoked, disconnecting calendar source")
			if derr := s.sources.Disconnect(ctx, src.ID); derr != nil {
				return Result{}, fmt.Errorf("failed to disconnect source %d: %w", src.ID, derr)
			}
			return Result{Status: StatusDisconnected}, nil
		}
		if err != nil {
			s.recordError(ctx, src.ID, err)
			return Result{}, fmt.Errorf("failed to refresh token for source %d (%s): %w",
				src.ID, Classify(err), err)
		}
		if err := s.storeToken(ctx, src, token); err != nil {
			return Result{}, err
		}
	}

	provider := s.factory(token.AccessToken)

	result, cursor, err := s.runSync(ctx, provider, src.ID, src.SyncCursor)
	if errors.Is(err, ErrCursorExpired) {
		// The provider dropped our incremental token; fall back to a
		// full window sync instead of failing.
		log.Info("sync cursor expired, running full window sync")
		result, cursor, err = s.runSync(ctx, provider, src.ID, "")
		result.FullSync = true
	}
	if err != nil {
		s.recordError(ctx, src.ID, err)
		return Result{}, fmt.Errorf("sync failed for source %d (%s): %w", src.ID, Classify(err), err)
	}

	syncedAt := s.now()
	if err := s.sources.UpdateSyncState(ctx, src.ID, cursor, syncedAt); err != nil {
		return Result{}, fmt.Errorf("failed to persist sync state for source %d: %w", src.ID, err)
	}

	result.Status = StatusOK
	if src.SyncCursor == "" {
		result.FullSync = true
	}
	log.WithFields(logrus.Fields{
		"upserted":  result.Upserted,
		"deleted":   result.Deleted,
		"full_sync": result.FullSync,
	}).Info("calendar source synced")
	return result, nil
}

// runSync walks provider pages for one cursor-or-window request, writing
// upserts and deletions, and returns the next cursor.
func (s *Syncer) runSync(ctx context.Context, provider Provider, sourceID int64, cursor string) (Result, string, error) {
	var result Result

	opts := ListOptions{Cursor: cursor}
	if cursor == "" {
		now := s.now()
		opts.From = now.Add(-windowBack)
		opts.To = now.Add(windowForward)
	}

	var upserts []*models.Event
	var deletions []string
	nextCursor := cursor

	for {
		page, err := provider.ListEvents(ctx, opts)
		if err != nil {
			return Result{}, "", err
		}

		for _, ev := range page.Events {
			if ev.Cancelled {
				deletions = append(deletions, ev.ID)
				continue
			}
			upserts = append(upserts, remoteToEvent(sourceID, ev))
		}

		if page.NextSyncToken != "" {
			nextCursor = page.NextSyncToken
		}
		if page.NextPageToken == "" {
			break
		}
		opts.PageToken = page.NextPageToken
	}

	if len(upserts) > 0 {
		n, err := s.events.UpsertBySource(ctx, sourceID, upserts)
		if err != nil {
			return Result{}, "", fmt.Errorf("failed to upsert events: %w", err)
		}
		result.Upserted = n
	}
	if len(deletions) > 0 {
		n, err := s.events.DeleteBySourceExternalIDs(ctx, sourceID, deletions)
		if err != nil {
			return Result{}, "", fmt.Errorf("failed to delete cancelled events: %w", err)
		}
		result.Deleted = n
	}

	return result, nextCursor, nil
}

func (s *Syncer) decryptToken(src *models.CalendarSource) (Token, error) {
	access, err := s.cipher.Decrypt(src.AccessToken)
	if err != nil {
		return Token{}, fmt.Errorf("failed to decrypt access token for source %d: %w", src.ID, err)
	}
	refresh, err := s.cipher.Decrypt(src.RefreshToken)
	if err != nil {
		return Token{}, fmt.Errorf("failed to decrypt refresh token for source %d: %w", src.ID, err)
	}
	token := Token{AccessToken: access, RefreshToken: refresh}
	if src.TokenExpiry != nil {
		token.Expiry = *src.TokenExpiry
	}
	return token, nil
}

func (s *Syncer) storeToken(ctx context.Context, src *models.CalendarSource, token Token) error {
	access, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := s.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	src.AccessToken = access
	src.RefreshToken = refresh
	expiry := token.Expiry
	src.TokenExpiry = &expiry

	if _, err := s.sources.Update(ctx, src); err != nil {
		return fmt.Errorf("failed to store refreshed token for source %d: %w", src.ID, err)
	}
	return nil
}

func (s *Syncer) recordError(ctx context.Context, sourceID int64, cause error) {
	msg := fmt.Sprintf("%s: %v", Classify(cause), cause)
	if err := s.sources.RecordSyncError(ctx, sourceID, msg); err != nil {
		s.logger.WithError(err).Error("failed to record sync error")
	}
}

func remoteToEvent(sourceID int64, ev RemoteEvent) *models.Event {
	event := &models.Event{
		CalendarSourceID: &sourceID,
		ExternalID:       ev.ID,
		Title:            ev.Title,
		Description:      ev.Description,
		Location:         ev.Location,
		StartTime:        ev.Start,
		AllDay:           ev.AllDay,
		Recurrence:       ev.Recurrence,
		RawPayload:       ev.Raw,
	}
	if !ev.End.IsZero() {
		end := ev.End
		event.EndTime = &end
	}
	return event
}
