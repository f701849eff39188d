package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
// Used for tests and when sync history is disabled on disk.
type HistoryStore struct {
	mu      sync.RWMutex
	records []domain.PassRecord
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Record logs a pass.
func (s *HistoryStore) Record(_ context.Context, record *domain.PassRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

// List returns recent passes, most recent first.
func (s *HistoryStore) List(_ context.Context, binding string, limit int) ([]domain.PassRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.PassRecord, 0, len(s.records))
	for _, r := range s.records {
		if binding == "" || r.Binding == binding {
			matched = append(matched, r)
		}
	}
	sortMostRecentFirst(matched)

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Stats aggregates all recorded passes for a binding.
func (s *HistoryStore) Stats(_ context.Context, binding string) (domain.PassStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.PassStats
	for _, r := range s.records {
		if r.Binding != binding {
			continue
		}
		stats.Total++
		switch r.Outcome {
		case domain.OutcomePushed:
			stats.Pushed++
		case domain.OutcomePulled:
			stats.Pulled++
		case domain.OutcomeInSync:
			stats.InSync++
		case domain.OutcomeConflict:
			stats.Conflicts++
		case domain.OutcomeSkipped:
			stats.Skipped++
		case domain.OutcomeFailed:
			stats.Failed++
		}
		if r.EndedAt.After(stats.LastPass) {
			stats.LastPass = r.EndedAt
		}
	}
	return stats, nil
}

// Prune keeps only the most recent 'keep' passes per binding.
func (s *HistoryStore) Prune(_ context.Context, keep int) error {
	if keep < 0 {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sortMostRecentFirst(s.records)
	seen := make(map[string]int)
	kept := s.records[:0]
	for _, r := range s.records {
		if seen[r.Binding] < keep {
			kept = append(kept, r)
		}
		seen[r.Binding]++
	}
	s.records = kept
	return nil
}

func sortMostRecentFirst(records []domain.PassRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
}
