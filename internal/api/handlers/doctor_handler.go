package handlers

import (
	"net/http"
	"strings"

	"github.com/zatekoja/clinicportal/internal/api/middleware"
	"github.com/zatekoja/clinicportal/internal/application/services"
)

// DoctorHandler serves the signed-in doctor's profile.
type DoctorHandler struct {
	doctors *services.DoctorService
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(doctors *services.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors}
}

// GetProfile handles GET /api/doctors/me
func (h *DoctorHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"doctor":      doctor,
		"displayName": doctor.DisplayName(),
	})
}

// SaveProfile handles PUT /api/doctors/me. It registers the username on
// first use, so it only needs the identity header.
func (h *DoctorHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.Header.Get(middleware.DoctorHeader))
	var profile services.DoctorProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	doctor, err := h.doctors.SaveProfile(r.Context(), username, profile)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "doctor": doctor})
}
