package http

import (
	"net/http"
	"strconv"

	"pledg/domain"
	"pledg/service"
)

type CalculatorHandler struct {
	calculator  *service.CalculatorService
	terms       *service.TermComparisonService
	simulations *service.SimulationService
}

func NewCalculatorHandler(
	calculator *service.CalculatorService,
	terms *service.TermComparisonService,
	simulations *service.SimulationService,
) *CalculatorHandler {
	return &CalculatorHandler{
		calculator:  calculator,
		terms:       terms,
		simulations: simulations,
	}
}

func (h *CalculatorHandler) CalculateLoan(w http.ResponseWriter, r *http.Request) {
	var input domain.RawCalculatorInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.calculator.Calculate(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, "", result)
}

func (h *CalculatorHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var input domain.ScheduleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := service.Schedule(input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, "", result)
}

func (h *CalculatorHandler) CompareTerms(w http.ResponseWriter, r *http.Request) {
	var input domain.TermComparisonInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.terms.CompareTerms(input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, "", result)
}

func (h *CalculatorHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var input domain.SimulationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.simulations.Simulate(input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, "", result)
}

// SellVsBorrow reads optional holding and gain query parameters.
func (h *CalculatorHandler) SellVsBorrow(w http.ResponseWriter, r *http.Request) {
	holding, err := queryFloat(r, "holding")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "holding must be a number")
		return
	}
	gain, err := queryFloat(r, "gain")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "gain must be a number")
		return
	}

	result, err := service.CompareSellVsBorrow(holding, gain)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, "", result)
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
