package report

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Service persists finished run reports and serves run history. Both the
// database store and the object storage uploader are optional; persistence
// is best effort and never fails a sync run.
type Service struct {
	store     *Store
	uploader  *Uploader
	retention time.Duration
	logger    *zap.Logger
}

// NewService wires the report service. store and uploader may be nil when
// the respective backend is disabled. A retention of zero keeps uploaded
// reports forever.
func NewService(store *Store, uploader *Uploader, retention time.Duration, logger *zap.Logger) *Service {
	return &Service{store: store, uploader: uploader, retention: retention, logger: logger}
}

// Persist writes the report to every enabled backend.
func (s *Service) Persist(ctx context.Context, report Report) {
	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			s.logger.Warn("unable to save run report to database",
				zap.String("run_id", report.Run.ID), zap.Error(err))
		}
	}
	if s.uploader != nil {
		objectName, err := s.uploader.Upload(ctx, report)
		if err != nil {
			s.logger.Warn("unable to upload run report",
				zap.String("run_id", report.Run.ID), zap.Error(err))
			return
		}
		s.logger.Info("uploaded run report",
			zap.String("run_id", report.Run.ID), zap.String("object", objectName))

		if s.retention > 0 {
			removed, err := s.uploader.Prune(ctx, time.Now().Add(-s.retention))
			if err != nil {
				s.logger.Warn("unable to prune old run reports", zap.Error(err))
			} else if removed > 0 {
				s.logger.Info("pruned old run reports", zap.Int("removed", removed))
			}
		}
	}
}

// Archive returns the raw JSON document uploaded for a run.
func (s *Service) Archive(ctx context.Context, runID string) ([]byte, error) {
	if s.uploader == nil {
		return nil, errors.New("report archive is not configured")
	}
	return s.uploader.Fetch(ctx, runID)
}

// HasArchive reports whether uploaded report documents can be served.
func (s *Service) HasArchive() bool {
	return s.uploader != nil
}

// RecentRuns lists the newest runs.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s.store == nil {
		return nil, errors.New("run history database is not configured")
	}
	return s.store.RecentRuns(ctx, limit)
}

// Run loads one run with its entries.
func (s *Service) Run(ctx context.Context, runID string) (*Report, error) {
	if s.store == nil {
		return nil, errors.New("run history database is not configured")
	}
	return s.store.Run(ctx, runID)
}

// HasHistory reports whether run history queries are available.
func (s *Service) HasHistory() bool {
	return s.store != nil
}
