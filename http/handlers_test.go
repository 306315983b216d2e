package http

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pledg/domain"
	"pledg/repository"
	"pledg/service"
)

type staticPrices struct{}

func (staticPrices) Snapshot() domain.PriceSnapshot {
	return domain.PriceSnapshot{Price: 8_500_000, Source: domain.PriceSourceFallback, Stale: true}
}

func newTestRouter(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()

	prices := staticPrices{}
	bounds := service.DefaultBounds()
	calculator := service.NewCalculatorService(service.NewValidator(bounds), prices, nil)

	return NewRouter(Dependencies{
		Calculator: NewCalculatorHandler(
			calculator,
			service.NewTermComparisonService(bounds),
			service.NewSimulationService(prices),
		),
		Waitlist:       NewWaitlistHandler(service.NewWaitlistService(repository.NewWaitlistRepositoryMemory(), nil)),
		Price:          NewPriceHandler(prices, calculator, NewHub([]string{"*"})),
		RateLimiter:    limiter,
		AllowedOrigins: []string{"*"},
	})
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var raw struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v: %s", err, w.Body.String())
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return raw.envelope
}

func TestCalculateLoanHandler_OK(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/v1/loan/calculate", `{
		"loanAmount": 500000,
		"loanTermMonths": 12,
		"annualInterestRatePercent": 13.5,
		"capitalGainsAmount": 300000
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var calc service.Calculation
	env := decodeEnvelope(t, w, &calc)
	if !env.Success {
		t.Error("expected success")
	}
	if env.RequestID == "" {
		t.Error("expected a request id")
	}
	if calc.Result.TaxPayable != 93_600 {
		t.Errorf("expected tax 93600, got %v", calc.Result.TaxPayable)
	}
	if !calc.PriceStale {
		t.Error("expected the fallback price to be reported as stale")
	}
}

func TestCalculateLoanHandler_BadRequest(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/v1/loan/calculate", `{invalid-json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/v1/loan/calculate", `{"loanAmount": -1, "loanTermMonths": 12}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a negative amount, got %d", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/v1/loan/calculate", `{"loanAmount": 100000, "loanTermMonths": 0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a zero term, got %d", w.Code)
	}
}

func TestCalculateLoanHandler_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/v1/loan/calculate", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestCalculateLoanHandler_RateLimited(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	router := newTestRouter(t, limiter)

	body := `{"loanAmount": 500000, "loanTermMonths": 12, "annualInterestRatePercent": 13.5}`
	for i := 0; i < 2; i++ {
		if w := doRequest(router, http.MethodPost, "/v1/loan/calculate", body); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := doRequest(router, http.MethodPost, "/v1/loan/calculate", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestScheduleHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/v1/loan/schedule",
		`{"loanAmount": 120000, "loanTermMonths": 12, "annualInterestRatePercent": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var schedule domain.ScheduleResult
	decodeEnvelope(t, w, &schedule)
	if len(schedule.Installments) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(schedule.Installments))
	}
	if schedule.Installments[0].Payment != 10_000 {
		t.Errorf("expected payment 10000, got %v", schedule.Installments[0].Payment)
	}
}

func TestScheduleHandler_Rejections(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"term beyond maximum", `{"loanAmount": 1000, "loanTermMonths": 200000000, "annualInterestRatePercent": 0}`, http.StatusBadRequest},
		{"overflowing rate", `{"loanAmount": 1000000, "loanTermMonths": 12, "annualInterestRatePercent": 1e308}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/v1/loan/schedule", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if env := decodeEnvelope(t, w, nil); env.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestCalculatorRoutesShareRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	router := newTestRouter(t, limiter)

	calc := doRequest(router, http.MethodPost, "/v1/loan/calculate",
		`{"loanAmount": 500000, "loanTermMonths": 12, "annualInterestRatePercent": 13.5}`)
	if calc.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", calc.Code)
	}

	for _, path := range []string{"/v1/loan/schedule", "/v1/loan/terms", "/v1/loan/simulate"} {
		w := doRequest(router, http.MethodPost, path, `{}`)
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("%s: expected 429, got %d", path, w.Code)
		}
	}
}

func TestCompareTermsHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/v1/loan/terms",
		`{"loanAmount": 500000, "annualInterestRatePercent": 13.5, "preference": "minimize_interest"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/v1/loan/terms",
		`{"loanAmount": 500000, "annualInterestRatePercent": 13.5, "maxMonthlyInstallment": 10}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestSimulateHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/v1/loan/simulate",
		`{"loanAmount": 1000000, "simulatedPrice": 4675000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result domain.SimulationResult
	decodeEnvelope(t, w, &result)
	if result.Zone != domain.RiskZoneLiquidation {
		t.Errorf("expected liquidation zone, got %s", result.Zone)
	}
}

func TestSellVsBorrowHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/v1/loan/compare", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result domain.SellVsBorrow
	decodeEnvelope(t, w, &result)
	if math.Abs(result.NetAfterSale-16_880_000) > 0.01 {
		t.Errorf("expected net 16880000, got %v", result.NetAfterSale)
	}

	w = doRequest(router, http.MethodGet, "/v1/loan/compare?holding=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetPriceHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/v1/price", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap domain.PriceSnapshot
	env := decodeEnvelope(t, w, &snap)
	if snap.Price != 8_500_000 || snap.Source != domain.PriceSourceFallback {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if env.Message == "" {
		t.Error("expected a stale price message")
	}
}

func TestHealthHandlers(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		if w := doRequest(router, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
	if w := doRequest(router, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
