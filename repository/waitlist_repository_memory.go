package repository

import (
	"context"
	"sync"

	"pledg/domain"
)

// WaitlistRepositoryMemory is an in-memory implementation of WaitlistRepository.
type WaitlistRepositoryMemory struct {
	mu   sync.RWMutex
	data []domain.WaitlistEntry
}

// NewWaitlistRepositoryMemory creates a new in-memory waitlist repository.
func NewWaitlistRepositoryMemory() *WaitlistRepositoryMemory {
	return &WaitlistRepositoryMemory{
		data: []domain.WaitlistEntry{},
	}
}

func (r *WaitlistRepositoryMemory) FindByContact(
	_ context.Context,
	phone, email string,
) (domain.WaitlistEntry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.data {
		if matchesContact(entry, phone, email) {
			return entry, true, nil
		}
	}
	return domain.WaitlistEntry{}, false, nil
}

// Create stores the entry in memory.
func (r *WaitlistRepositoryMemory) Create(
	_ context.Context,
	entry domain.WaitlistEntry,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.data {
		if matchesContact(existing, entry.Phone, entry.Email) {
			return ErrDuplicateEntry
		}
	}
	r.data = append(r.data, entry)
	return nil
}

func (r *WaitlistRepositoryMemory) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.data)), nil
}

func matchesContact(entry domain.WaitlistEntry, phone, email string) bool {
	if phone != "" && entry.Phone == phone {
		return true
	}
	return email != "" && entry.Email == email
}
