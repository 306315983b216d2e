package domain

import "time"

type PriceSource string

const (
	PriceSourceLive     PriceSource = "live"
	PriceSourceCached   PriceSource = "cached"
	PriceSourceFallback PriceSource = "fallback"
	PriceSourceUser     PriceSource = "user"
)

// PriceQuote is what the external feed returns.
type PriceQuote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

// PriceSnapshot is the cached view of the feed read by calculations.
type PriceSnapshot struct {
	Price     float64     `json:"price"`
	Change24h float64     `json:"change24h"`
	FetchedAt time.Time   `json:"fetchedAt"`
	Source    PriceSource `json:"source"`
	Stale     bool        `json:"stale"`
}
