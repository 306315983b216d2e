package http

import (
	"net/http"

	"pledg/service"
)

type PriceHandler struct {
	prices     service.PriceProvider
	calculator *service.CalculatorService
	hub        *Hub
}

func NewPriceHandler(prices service.PriceProvider, calculator *service.CalculatorService, hub *Hub) *PriceHandler {
	return &PriceHandler{
		prices:     prices,
		calculator: calculator,
		hub:        hub,
	}
}

func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	snap := h.prices.Snapshot()
	message := ""
	if snap.Stale {
		message = "Live price unavailable; showing the last known price"
	}
	writeSuccess(w, r, http.StatusOK, message, snap)
}

// Stream upgrades to a websocket that receives every new price snapshot and
// answers calculation requests.
func (h *PriceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, h.calculator, h.prices.Snapshot())
}
