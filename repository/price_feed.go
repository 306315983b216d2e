package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pledg/domain"
)

// PriceFeed returns the current collateral asset quote.
type PriceFeed interface {
	FetchPrice(ctx context.Context) (domain.PriceQuote, error)
}

var ErrInvalidQuote = errors.New("price feed returned an invalid quote")

// maxFeedBody bounds how much of a feed response is read.
const maxFeedBody = 1 << 20

type HTTPPriceFeed struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// feedResponse accepts both the worker shape {"bitcoin":{"inr":..}} and a
// flat {"price":..,"change24h":..} body.
type feedResponse struct {
	Price     *float64 `json:"price"`
	Change24h float64  `json:"change24h"`
	Bitcoin   *struct {
		INR       float64 `json:"inr"`
		Change24h float64 `json:"change24h"`
	} `json:"bitcoin"`
}

func NewHTTPPriceFeed(endpoint string, timeout time.Duration) *HTTPPriceFeed {
	return &HTTPPriceFeed{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

func (f *HTTPPriceFeed) FetchPrice(ctx context.Context) (domain.PriceQuote, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("parse price feed url: %w", err)
	}
	// Cache-busting parameter; the upstream worker sits behind a CDN.
	q := u.Query()
	q.Set("t", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("build price feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("request price feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("read price feed body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.PriceQuote{}, fmt.Errorf("price feed status %d: %s", resp.StatusCode, string(body))
	}

	var decoded feedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode price feed body: %w", err)
	}

	var quote domain.PriceQuote
	switch {
	case decoded.Bitcoin != nil:
		quote = domain.PriceQuote{Price: decoded.Bitcoin.INR, Change24h: decoded.Bitcoin.Change24h}
	case decoded.Price != nil:
		quote = domain.PriceQuote{Price: *decoded.Price, Change24h: decoded.Change24h}
	default:
		return domain.PriceQuote{}, fmt.Errorf("%w: no price field", ErrInvalidQuote)
	}

	if quote.Price <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("%w: price %v", ErrInvalidQuote, quote.Price)
	}
	return quote, nil
}
