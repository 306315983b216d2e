package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pledg/domain"
	"pledg/logger"
	"pledg/metrics"
	"pledg/repository"
)

const lastGoodPriceKey = "price:btc_inr:last_good"

type PriceServiceOptions struct {
	Interval      time.Duration
	FetchTimeout  time.Duration
	FallbackPrice float64
	CacheTTL      time.Duration
}

// PriceService polls the external feed on a fixed interval and keeps the most
// recent snapshot for calculations. Reads never wait on the network.
type PriceService struct {
	feed    repository.PriceFeed
	cache   repository.CacheRepository
	metrics *metrics.Recorder
	opts    PriceServiceOptions
	now     func() time.Time

	current atomic.Pointer[domain.PriceSnapshot]

	mu          sync.RWMutex
	subscribers []func(domain.PriceSnapshot)
}

func NewPriceService(
	feed repository.PriceFeed,
	cache repository.CacheRepository,
	recorder *metrics.Recorder,
	opts PriceServiceOptions,
) *PriceService {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.FallbackPrice <= 0 {
		opts.FallbackPrice = FallbackAssetPrice
	}
	return &PriceService{
		feed:    feed,
		cache:   cache,
		metrics: recorder,
		opts:    opts,
		now:     time.Now,
	}
}

// Subscribe registers fn to receive every snapshot stored after the call.
// fn runs on the polling goroutine and must not block.
func (s *PriceService) Subscribe(fn func(domain.PriceSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Snapshot returns the latest snapshot, or the fallback constant before the
// first poll has completed.
func (s *PriceService) Snapshot() domain.PriceSnapshot {
	if snap := s.current.Load(); snap != nil {
		return *snap
	}
	return s.fallbackSnapshot()
}

// Run polls immediately and then on every interval until ctx is done.
func (s *PriceService) Run(ctx context.Context) error {
	s.warmFromCache(ctx)
	s.Refresh(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Refresh(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Refresh performs one poll. On failure the previous live value (marked
// stale), the cached last-known-good value or the fallback constant is
// stored instead, in that order.
func (s *PriceService) Refresh(ctx context.Context) domain.PriceSnapshot {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	quote, err := s.feed.FetchPrice(fetchCtx)
	if err != nil {
		snap := s.degradedSnapshot(ctx)
		logger.Warn("price feed unavailable",
			zap.Error(err),
			zap.String("source", string(snap.Source)),
			zap.Float64("price", snap.Price),
		)
		s.store(snap)
		return snap
	}

	snap := domain.PriceSnapshot{
		Price:     quote.Price,
		Change24h: quote.Change24h,
		FetchedAt: s.now().UTC(),
		Source:    domain.PriceSourceLive,
	}
	s.store(snap)
	s.saveLastGood(ctx, snap)
	logger.Debug("price refreshed", zap.Float64("price", snap.Price), zap.Float64("change24h", snap.Change24h))
	return snap
}

func (s *PriceService) store(snap domain.PriceSnapshot) {
	s.current.Store(&snap)
	s.metrics.ObservePricePoll(string(snap.Source), snap.Price)

	s.mu.RLock()
	subscribers := append([]func(domain.PriceSnapshot){}, s.subscribers...)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(snap)
	}
}

func (s *PriceService) degradedSnapshot(ctx context.Context) domain.PriceSnapshot {
	if prev := s.current.Load(); prev != nil && prev.Source != domain.PriceSourceFallback {
		snap := *prev
		snap.Source = domain.PriceSourceCached
		snap.Stale = true
		return snap
	}
	if snap, ok := s.loadLastGood(ctx); ok {
		return snap
	}
	return s.fallbackSnapshot()
}

func (s *PriceService) fallbackSnapshot() domain.PriceSnapshot {
	return domain.PriceSnapshot{
		Price:  s.opts.FallbackPrice,
		Source: domain.PriceSourceFallback,
		Stale:  true,
	}
}

func (s *PriceService) warmFromCache(ctx context.Context) {
	if s.current.Load() != nil {
		return
	}
	if snap, ok := s.loadLastGood(ctx); ok {
		s.current.Store(&snap)
	}
}

func (s *PriceService) loadLastGood(ctx context.Context) (domain.PriceSnapshot, bool) {
	if s.cache == nil {
		return domain.PriceSnapshot{}, false
	}
	raw, ok := s.cache.Get(ctx, lastGoodPriceKey)
	if !ok {
		return domain.PriceSnapshot{}, false
	}

	var snap domain.PriceSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.Price <= 0 {
		logger.Warn("discarding unreadable cached price", zap.String("key", lastGoodPriceKey))
		return domain.PriceSnapshot{}, false
	}
	snap.Source = domain.PriceSourceCached
	snap.Stale = true
	return snap, true
}

func (s *PriceService) saveLastGood(ctx context.Context, snap domain.PriceSnapshot) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, lastGoodPriceKey, string(raw), s.opts.CacheTTL); err != nil {
		// Not fatal, the in-memory snapshot still serves reads.
		logger.Warn("failed to cache price snapshot", zap.Error(err))
	}
}
