package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"pledg/domain"
	"pledg/logger"
	"pledg/metrics"
)

// PriceProvider is the read side of the price feed.
type PriceProvider interface {
	Snapshot() domain.PriceSnapshot
}

type Calculation struct {
	Input  domain.CalculatorInput  `json:"input"`
	Result domain.CalculatorResult `json:"result"`
	Price  domain.PriceSnapshot    `json:"price"`
	// PriceStale is set whenever the price did not come from a live quote.
	PriceStale bool    `json:"priceStale"`
	Display    Display `json:"display"`
}

type CalculatorService struct {
	validator *Validator
	prices    PriceProvider
	metrics   *metrics.Recorder
}

func NewCalculatorService(validator *Validator, prices PriceProvider, recorder *metrics.Recorder) *CalculatorService {
	return &CalculatorService{
		validator: validator,
		prices:    prices,
		metrics:   recorder,
	}
}

// Calculate normalizes raw input, resolves the asset price from the latest
// snapshot unless the caller supplied one, and runs Compute.
func (s *CalculatorService) Calculate(
	ctx context.Context,
	raw domain.RawCalculatorInput,
) (Calculation, error) {

	input, err := s.validator.Normalize(raw)
	if err != nil {
		s.metrics.ObserveCalculation("invalid")
		return Calculation{}, err
	}

	snap := domain.PriceSnapshot{
		Price:  input.CurrentAssetPrice,
		Source: domain.PriceSourceUser,
	}
	if input.CurrentAssetPrice == 0 {
		snap = s.prices.Snapshot()
		input.CurrentAssetPrice = snap.Price
	}

	result, err := Compute(input)
	if err != nil {
		s.metrics.ObserveCalculation("error")
		logger.Warn("calculation failed", zap.Error(err), zap.Any("input", input))
		return Calculation{}, err
	}
	s.metrics.ObserveCalculation("ok")

	return Calculation{
		Input:      input,
		Result:     result,
		Price:      snap,
		PriceStale: snap.Stale,
		Display:    NewDisplay(result, input.CurrentAssetPrice),
	}, nil
}

// Session keeps the newest calculation of one client. Results computed for
// an older sequence number than the one already published are dropped.
type Session struct {
	mu        sync.Mutex
	latestSeq uint64
	latest    *Calculation
}

func NewSession() *Session {
	return &Session{}
}

// Publish stores calc if seq is newer than the latest accepted sequence and
// reports whether it did.
func (s *Session) Publish(seq uint64, calc Calculation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil && seq <= s.latestSeq {
		return false
	}
	s.latestSeq = seq
	s.latest = &calc
	return true
}

func (s *Session) Latest() (Calculation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return Calculation{}, false
	}
	return *s.latest, true
}
