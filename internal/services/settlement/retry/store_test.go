package retry

import (
	"context"
	"sort"
	"time"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
)

// fakeRetryStore mirrors the upsert semantics of the Postgres-backed
// repository: one row per correlation id, attempts and state preserved
// on re-enqueue.
type fakeRetryStore struct {
	entries map[string]*models.SettlementRetry
	nextID  uint
}

func newFakeRetryStore() *fakeRetryStore {
	return &fakeRetryStore{entries: make(map[string]*models.SettlementRetry)}
}

func (f *fakeRetryStore) Enqueue(_ context.Context, entry *models.SettlementRetry) error {
	if existing, ok := f.entries[entry.CorrelationID]; ok {
		existing.Status = entry.Status
		existing.Payload = entry.Payload
		existing.MaxAttempts = entry.MaxAttempts
		existing.NextRetryAt = entry.NextRetryAt
		existing.LastError = entry.LastError
		return nil
	}
	f.nextID++
	entry.ID = f.nextID
	cp := *entry
	f.entries[entry.CorrelationID] = &cp
	return nil
}

func (f *fakeRetryStore) Due(_ context.Context, now time.Time, limit int) ([]models.SettlementRetry, error) {
	var due []models.SettlementRetry
	for _, e := range f.entries {
		if e.State == models.RetryPending && !e.NextRetryAt.After(now) && e.Attempts < e.MaxAttempts {
			due = append(due, *e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRetryAt.Before(due[j].NextRetryAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeRetryStore) GetByCorrelationID(_ context.Context, correlationID string) (*models.SettlementRetry, error) {
	e, ok := f.entries[correlationID]
	if !ok {
		return nil, repositories.ErrRetryNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRetryStore) Delete(_ context.Context, correlationID string) error {
	if _, ok := f.entries[correlationID]; !ok {
		return repositories.ErrRetryNotFound
	}
	delete(f.entries, correlationID)
	return nil
}

func (f *fakeRetryStore) RecordFailure(_ context.Context, id uint, attempts int, nextRetryAt time.Time, state, lastError string) error {
	for _, e := range f.entries {
		if e.ID == id {
			e.Attempts = attempts
			e.NextRetryAt = nextRetryAt
			e.State = state
			e.LastError = lastError
			return nil
		}
	}
	return repositories.ErrRetryNotFound
}

func (f *fakeRetryStore) ListByState(_ context.Context, state string) ([]models.SettlementRetry, error) {
	var out []models.SettlementRetry
	for _, e := range f.entries {
		if e.State == state {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRetryStore) Reopen(_ context.Context, correlationID string, maxAttempts int, nextRetryAt time.Time) error {
	e, ok := f.entries[correlationID]
	if !ok || e.State != models.RetryExhausted {
		return repositories.ErrRetryNotFound
	}
	e.Attempts = 0
	e.MaxAttempts = maxAttempts
	e.NextRetryAt = nextRetryAt
	e.State = models.RetryPending
	e.LastError = ""
	return nil
}
