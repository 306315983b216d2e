package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pledg/domain"
	"pledg/logger"
	"pledg/metrics"
	"pledg/repository"
)

var (
	emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*(\+\w+)?@\w+([\.-]?\w+)*(\.\w{2,})+$`)
	termPattern  = regexp.MustCompile(`^\s*(\d+)`)
)

const alreadyJoinedMessage = "You are already on the waitlist!"

type WaitlistService struct {
	repo    repository.WaitlistRepository
	metrics *metrics.Recorder
	now     func() time.Time
	newID   func() string
}

func NewWaitlistService(repo repository.WaitlistRepository, recorder *metrics.Recorder) *WaitlistService {
	return &WaitlistService{
		repo:    repo,
		metrics: recorder,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// ValidationError lists every rejected field of a waitlist request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"name", "phone", "email", "amount", "term", "notes"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrWaitlistValidation }

// Join adds a signup. A phone or email already present is reported as
// success without creating a second entry.
func (s *WaitlistService) Join(ctx context.Context, req domain.WaitlistRequest) (domain.JoinResult, error) {
	entry, err := s.normalize(req)
	if err != nil {
		s.metrics.ObserveWaitlist("invalid")
		return domain.JoinResult{}, err
	}

	existing, found, err := s.repo.FindByContact(ctx, entry.Phone, entry.Email)
	if err != nil {
		s.metrics.ObserveWaitlist("error")
		return domain.JoinResult{}, fmt.Errorf("lookup waitlist entry: %w", err)
	}
	if found {
		s.metrics.ObserveWaitlist("duplicate")
		return domain.JoinResult{Entry: existing, Message: alreadyJoinedMessage}, nil
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		// Lost a race with a concurrent signup for the same contact.
		if errors.Is(err, repository.ErrDuplicateEntry) {
			s.metrics.ObserveWaitlist("duplicate")
			return domain.JoinResult{Entry: entry, Message: alreadyJoinedMessage}, nil
		}
		s.metrics.ObserveWaitlist("error")
		return domain.JoinResult{}, fmt.Errorf("create waitlist entry: %w", err)
	}

	s.metrics.ObserveWaitlist("created")
	logger.Info("waitlist entry created",
		zap.String("id", entry.ID),
		zap.Float64("loan_amount", entry.LoanAmount),
		zap.Int("term_months", entry.TermMonths),
	)
	return domain.JoinResult{Entry: entry, Created: true, Message: "Welcome to the waitlist!"}, nil
}

func (s *WaitlistService) normalize(req domain.WaitlistRequest) (domain.WaitlistEntry, error) {
	fields := map[string]string{}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		fields["name"] = "is required"
	}

	phone := normalizePhone(req.Phone)
	switch digits := strings.TrimPrefix(phone, "+"); {
	case phone == "":
		fields["phone"] = "is required"
	case len(digits) < 10 || len(digits) > 15:
		fields["phone"] = "must contain 10 to 15 digits"
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" && !emailPattern.MatchString(email) {
		fields["email"] = "is not a valid email address"
	}

	amount, err := parseAmount(req.Amount)
	switch {
	case strings.TrimSpace(req.Amount) == "":
		fields["amount"] = "is required"
	case err != nil || !isFinite(amount) || amount <= 0:
		fields["amount"] = "must be a positive number"
	case amount > MaxWaitlistAmount:
		fields["amount"] = "is too large"
	}

	term := 0
	if m := termPattern.FindStringSubmatch(req.Term); m != nil {
		term, _ = strconv.Atoi(m[1])
	}
	switch {
	case strings.TrimSpace(req.Term) == "":
		fields["term"] = "is required"
	case term < MinTermMonths || term > MaxTermMonths:
		fields["term"] = fmt.Sprintf("must be between %d and %d months", MinTermMonths, MaxTermMonths)
	}

	notes := strings.TrimSpace(req.Notes)
	if len([]rune(notes)) > MaxNotesLength {
		fields["notes"] = fmt.Sprintf("must be at most %d characters", MaxNotesLength)
	}

	if len(fields) > 0 {
		return domain.WaitlistEntry{}, &ValidationError{Fields: fields}
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = DefaultEntrySource
	}

	return domain.WaitlistEntry{
		ID:         s.newID(),
		Name:       name,
		Email:      email,
		Phone:      phone,
		LoanAmount: amount,
		TermMonths: term,
		Notes:      notes,
		Source:     source,
		CreatedAt:  s.now().UTC(),
	}, nil
}

// normalizePhone keeps digits and a leading plus sign.
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseAmount accepts Indian or western digit grouping and a rupee sign.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(strings.TrimSpace(raw))
	return strconv.ParseFloat(cleaned, 64)
}
