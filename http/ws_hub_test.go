package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pledg/domain"
	"pledg/service"
)

type wsReply struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func TestHub_StreamsPricesAndAnswersCalculations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prices := staticPrices{}
	calculator := service.NewCalculatorService(service.NewValidator(service.DefaultBounds()), prices, nil)
	hub := NewHub([]string{"*"})
	hubDone := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(hubDone)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, calculator, prices.Snapshot())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg wsReply
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial price: %v", err)
	}
	if msg.Type != "price" {
		t.Fatalf("expected initial price message, got %q", msg.Type)
	}

	err = conn.WriteJSON(map[string]any{
		"type": "calculate",
		"seq":  1,
		"input": domain.RawCalculatorInput{
			LoanAmount:                500_000,
			LoanTermMonths:            12,
			AnnualInterestRatePercent: 13.5,
			CapitalGainsAmount:        300_000,
		},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	msg = wsReply{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read calculation: %v", err)
	}
	if msg.Type != "calculation" || msg.Seq != 1 {
		t.Fatalf("unexpected reply %+v", msg)
	}
	var calc service.Calculation
	if err := json.Unmarshal(msg.Data, &calc); err != nil {
		t.Fatalf("decode calculation: %v", err)
	}
	if calc.Result.TaxPayable != 93_600 {
		t.Errorf("expected tax 93600, got %v", calc.Result.TaxPayable)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = wsReply{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if msg.Type != "error" {
		t.Errorf("expected error reply, got %q", msg.Type)
	}

	hub.PublishPrice(domain.PriceSnapshot{Price: 9_000_000, Source: domain.PriceSourceLive})
	msg = wsReply{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != "price" {
		t.Errorf("expected broadcast price, got %q", msg.Type)
	}

	cancel()
	<-hubDone
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close after the hub stops")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://pledg.in"})

	req := httptest.NewRequest(http.MethodGet, "/v1/price/stream", nil)
	if !check(req) {
		t.Error("requests without an Origin header are allowed")
	}
	req.Header.Set("Origin", "https://pledg.in")
	if !check(req) {
		t.Error("listed origin should be allowed")
	}
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Error("unlisted origin should be rejected")
	}
}
