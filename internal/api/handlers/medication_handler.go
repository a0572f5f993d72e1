package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/clinicportal/internal/nlp"
)

// MedicationParser turns a dictated order into structured fields.
type MedicationParser interface {
	Parse(ctx context.Context, transcript string) nlp.ParseResult
}

// MedicationHandler serves the medication extraction endpoint.
type MedicationHandler struct {
	parser MedicationParser
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(parser MedicationParser) *MedicationHandler {
	return &MedicationHandler{parser: parser}
}

type medicationRequest struct {
	Transcript string `json:"transcript"`
}

type medicationResponse struct {
	OK         bool   `json:"ok"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Days       string `json:"days"`
}

// ParseMedication handles POST /api/nlp/medication. The transcript comes
// from a JSON body or a form field.
func (h *MedicationHandler) ParseMedication(w http.ResponseWriter, r *http.Request) {
	var transcript string
	if isJSON(r) {
		var req medicationRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		transcript = req.Transcript
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		transcript = r.FormValue("transcript")
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		respondWithError(w, http.StatusBadRequest, "empty_transcript")
		return
	}

	result := h.parser.Parse(r.Context(), transcript)
	respondWithJSON(w, http.StatusOK, medicationResponse{
		OK:         true,
		Medication: result.Medication,
		Dosage:     result.Dosage,
		Days:       result.Days,
	})
}
