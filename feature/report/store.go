package report

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Store persists run history through the optional MySQL connection.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the run history tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Run{}, &Entry{}); err != nil {
		return fmt.Errorf("failed to migrate run history tables: %w", err)
	}
	return nil
}

// SaveReport writes the run and its entries in one transaction.
func (s *Store) SaveReport(ctx context.Context, report Report) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report.Run).Error; err != nil {
			return fmt.Errorf("failed to save run %s: %w", report.Run.ID, err)
		}
		if len(report.Entries) == 0 {
			return nil
		}
		if err := tx.Create(&report.Entries).Error; err != nil {
			return fmt.Errorf("failed to save entries of run %s: %w", report.Run.ID, err)
		}
		return nil
	})
}

// RecentRuns returns the newest runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Run returns one run with its entries.
func (s *Store) Run(ctx context.Context, runID string) (*Report, error) {
	var run Run
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	var entries []Entry
	err = s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load entries of run %s: %w", runID, err)
	}
	return &Report{Run: run, Entries: entries}, nil
}
