package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/tmnkosi/bankgate/internal/models"
)

// MemoryStore keeps attempt records in a mutex-guarded map. Suitable for a
// single service instance only; counters are not shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.AttemptRecord
}

// NewMemoryStore creates an empty in-memory attempt store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.AttemptRecord),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*models.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if record.Expired(time.Now()) {
		delete(s.records, key)
		return nil, nil
	}

	copied := *record
	return &copied, nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn func(*models.AttemptRecord) *models.AttemptRecord) (*models.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current *models.AttemptRecord
	if existing, ok := s.records[key]; ok && !existing.Expired(time.Now()) {
		copied := *existing
		current = &copied
	}

	updated := fn(current)
	if updated == nil {
		delete(s.records, key)
		return nil, nil
	}

	stored := *updated
	s.records[key] = &stored

	result := stored
	return &result, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// DeleteExpired removes aged-out records and returns how many were dropped.
// Called by the background cleanup manager.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, record := range s.records {
		if record.Expired(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live records. Used by tests and health reporting.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
