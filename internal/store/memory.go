package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"outreach-engine/internal/domain"
)

// Memory is the process-lifetime backend used when no database path is
// configured. A single mutex serializes writers; reads hand out deep copies
// so nobody can observe a half-applied mutation.
type Memory struct {
	mu        sync.RWMutex
	campaigns map[string]*domain.Campaign
}

func NewMemory() *Memory {
	return &Memory{campaigns: make(map[string]*domain.Campaign)}
}

func (m *Memory) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.JobID] = c.Clone()
	return nil
}

func (m *Memory) Get(_ context.Context, jobID string) (*domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *Memory) Update(_ context.Context, jobID string, mutate func(*domain.Campaign) error) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.campaigns[jobID]
	if !ok {
		return nil, ErrNotFound
	}

	next := cur.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	m.campaigns[jobID] = next
	return next.Clone(), nil
}

func (m *Memory) List(_ context.Context) ([]domain.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Summary, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].JobID > out[j].JobID
	})
	return out, nil
}

func (m *Memory) CleanupOld(_ context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, c := range m.campaigns {
		if c.Status.Terminal() && c.UpdatedAt.Before(cutoff) {
			delete(m.campaigns, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *Memory) Close() error { return nil }
