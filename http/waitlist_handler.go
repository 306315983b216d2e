package http

import (
	"net/http"

	"pledg/domain"
	"pledg/service"
)

type WaitlistHandler struct {
	service *service.WaitlistService
}

func NewWaitlistHandler(service *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

// Join answers 201 for a new signup, 200 when the contact is already on the
// list, 400 for invalid fields, 405 for any method but POST and 500 when
// the store fails.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req domain.WaitlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Join(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeSuccess(w, r, status, result.Message, result.Entry)
}
