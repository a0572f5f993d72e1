package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/entities"
)

const maxSearchLimit = 100

// PrescriptionHandler serves prescribing and prescription search.
type PrescriptionHandler struct {
	prescriptions *services.PrescriptionService
}

// NewPrescriptionHandler creates a new prescription handler
func NewPrescriptionHandler(prescriptions *services.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptions: prescriptions}
}

// Prescribe handles POST /api/prescriptions
func (h *PrescriptionHandler) Prescribe(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	var req services.PrescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	session, err := h.prescriptions.Prescribe(r.Context(), doctor, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "session": session})
}

// SearchPrescriptions handles GET /api/prescriptions/search?q=&limit=
func (h *PrescriptionHandler) SearchPrescriptions(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = min(parsed, maxSearchLimit)
	}

	docs, err := h.prescriptions.Search(r.Context(), doctor, query, limit)
	if errors.Is(err, services.ErrSearchUnavailable) {
		respondWithError(w, http.StatusServiceUnavailable, "search_unavailable")
		return
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if docs == nil {
		docs = []*entities.PrescriptionDocument{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"query":   query,
		"results": docs,
		"count":   len(docs),
	})
}
