package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrInvalidTerm        = errors.New("loan term out of range")
	ErrNonFiniteResult    = errors.New("calculation produced a non-finite value")
	ErrInvalidPreference  = errors.New("invalid preference")
	ErrNoTermMatches      = errors.New("no term satisfies the maximum installment")
	ErrWaitlistValidation = errors.New("waitlist validation failed")
	ErrPriceUnavailable   = errors.New("price unavailable")
)
