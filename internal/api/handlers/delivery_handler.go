package handlers

import (
	"net/http"
	"strings"

	"github.com/zatekoja/clinicportal/internal/application/services"
)

// DeliveryHandler serves the public links patients open from their phone.
type DeliveryHandler struct {
	delivery      *services.DeliveryService
	publicBaseURL string
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(delivery *services.DeliveryService, publicBaseURL string) *DeliveryHandler {
	return &DeliveryHandler{delivery: delivery, publicBaseURL: publicBaseURL}
}

// Confirm handles GET /delivery/confirm?patient=&token=
func (h *DeliveryHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patientID := strings.TrimSpace(q.Get("patient"))
	token := strings.TrimSpace(q.Get("token"))

	if _, err := h.delivery.Confirm(r.Context(), patientID, token); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	links := h.delivery.ResponseLinks(BaseURL(r, h.publicBaseURL), patientID)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"question": "Do you want your medicine delivered?",
		"links":    links,
	})
}

// Respond handles GET|POST /delivery/respond?patient=&choice=&token=
func (h *DeliveryHandler) Respond(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(r.FormValue("patient"))
	token := strings.TrimSpace(r.FormValue("token"))
	choice := strings.ToLower(strings.TrimSpace(r.FormValue("choice")))

	patient, err := h.delivery.Respond(r.Context(), patientID, token, choice)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"status":  patient.DeliveryStatus,
		"message": `Thanks! Your response was recorded as "` + choice + `".`,
	})
}
