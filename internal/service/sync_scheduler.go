package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"

	"github.com/cameron-nye/hearth/internal/calendar"
	"github.com/cameron-nye/hearth/internal/metrics"
	"github.com/cameron-nye/hearth/internal/photos"
)

// SyncInterval is how stale a source must be before a sweep picks it up.
const SyncInterval = 15 * time.Minute

// SourceOutcome reports one source's result within a sweep.
type SourceOutcome struct {
	SourceID int64  `json:"source_id"`
	Status   string `json:"status"`
	Upserted int    `json:"upserted,omitempty"`
	Deleted  int    `json:"deleted,omitempty"`
	Imported int    `json:"imported,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SweepResult is the summary of one full sync sweep.
type SweepResult struct {
	Calendars []SourceOutcome `json:"calendars"`
	Albums    []SourceOutcome `json:"albums"`
}

// SyncStaleSources refreshes every calendar source and photo album that has
// not synced within SyncInterval. One source failing never aborts the sweep;
// failures are recorded per source and aggregated into the returned error.
func (s *Service) SyncStaleSources(ctx context.Context, calendars *calendar.Syncer, albums *photos.Syncer) (*SweepResult, error) {
	cutoff := time.Now().Add(-SyncInterval)
	result := &SweepResult{}
	var errs *multierror.Error

	staleCalendars, err := s.CalendarSources.GetStale(ctx, cutoff)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, src := range staleCalendars {
		outcome := SourceOutcome{SourceID: src.ID}
		res, err := calendars.SyncSource(ctx, src)
		if err != nil {
			outcome.Status = "error"
			outcome.Error = err.Error()
			errs = multierror.Append(errs, err)
			metrics.SyncRuns.WithLabelValues("calendar", "error").Inc()
			s.logger.WithError(err).WithField("source_id", src.ID).Error("calendar sync failed")
		} else {
			outcome.Status = string(res.Status)
			outcome.Upserted = res.Upserted
			outcome.Deleted = res.Deleted
			metrics.SyncRuns.WithLabelValues("calendar", string(res.Status)).Inc()
			metrics.EventsUpserted.Add(float64(res.Upserted))
			metrics.EventsDeleted.Add(float64(res.Deleted))
		}
		result.Calendars = append(result.Calendars, outcome)
	}

	staleAlbums, err := s.PhotoSources.GetStale(ctx, cutoff)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, src := range staleAlbums {
		outcome := SourceOutcome{SourceID: src.ID}
		res, err := albums.SyncSource(ctx, src)
		if err != nil {
			outcome.Status = "error"
			outcome.Error = err.Error()
			errs = multierror.Append(errs, err)
			metrics.SyncRuns.WithLabelValues("album", "error").Inc()
			s.logger.WithError(err).WithField("source_id", src.ID).Error("album sync failed")
		} else {
			outcome.Status = "ok"
			outcome.Imported = res.Imported
			metrics.SyncRuns.WithLabelValues("album", "ok").Inc()
			metrics.PhotosImported.Add(float64(res.Imported))
		}
		result.Albums = append(result.Albums, outcome)
	}

	return result, errs.ErrorOrNil()
}

// StartSyncScheduler runs sync sweeps on the given cron spec until the
// context is cancelled. The returned cron can be used to wait for a running
// sweep during shutdown.
func (s *Service) StartSyncScheduler(ctx context.Context, spec string, calendars *calendar.Syncer, albums *photos.Syncer) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		sweep, err := s.SyncStaleSources(ctx, calendars, albums)
		if err != nil {
			s.logger.WithError(err).Error("sync sweep finished with errors")
		}
		s.logger.Infof("Sync sweep done: %d calendars, %d albums", len(sweep.Calendars), len(sweep.Albums))
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	s.logger.Infof("Sync scheduler started (spec %q)", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		s.logger.Info("Sync scheduler stopped")
	}()
	return c, nil
}
