package repository

import (
	"context"
	"errors"

	"pledg/domain"
)

var ErrDuplicateEntry = errors.New("waitlist entry already exists")

type WaitlistRepository interface {
	// FindByContact matches on phone, or on email when email is non-empty.
	FindByContact(ctx context.Context, phone, email string) (domain.WaitlistEntry, bool, error)
	// Create returns ErrDuplicateEntry when the phone or email is taken.
	Create(ctx context.Context, entry domain.WaitlistEntry) error
	Count(ctx context.Context) (int64, error)
}
