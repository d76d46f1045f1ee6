package store

import (
	"context"
	"errors"

	"outreach-engine/internal/domain"
)

var ErrNotFound = errors.New("campaign not found")

// Store persists campaigns. Two interchangeable backends exist: SQLite
// (durable) and in-memory (fallback when no database path is configured).
// Orchestration code never depends on which one it got.
//
// Update applies an atomic per-id read-modify-write: at most one mutator
// runs against a given campaign at a time, and readers observe either the
// pre- or post-mutation record, never a torn one. The mutator receives a
// private copy; returning an error discards the change.
type Store interface {
	Create(ctx context.Context, c *domain.Campaign) error
	Get(ctx context.Context, jobID string) (*domain.Campaign, error)
	Update(ctx context.Context, jobID string, mutate func(*domain.Campaign) error) (*domain.Campaign, error)
	List(ctx context.Context) ([]domain.Summary, error)
	// CleanupOld deletes terminal campaigns older than the retention window.
	CleanupOld(ctx context.Context, retentionDays int) (int64, error)
	Close() error
}
