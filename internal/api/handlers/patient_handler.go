package handlers

import (
	"net/http"

	"github.com/zatekoja/clinicportal/internal/api/middleware"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/entities"
)

// PatientHandler serves a doctor's patients and their consultations.
type PatientHandler struct {
	patients      *services.PatientService
	prescriptions *services.PrescriptionService
	delivery      *services.DeliveryService
	publicBaseURL string
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(
	patients *services.PatientService,
	prescriptions *services.PrescriptionService,
	delivery *services.DeliveryService,
	publicBaseURL string,
) *PatientHandler {
	return &PatientHandler{
		patients:      patients,
		prescriptions: prescriptions,
		delivery:      delivery,
		publicBaseURL: publicBaseURL,
	}
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	patients, err := h.patients.List(r.Context(), doctor.Username)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if patients == nil {
		patients = []*entities.Patient{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"patients": patients,
		"count":    len(patients),
	})
}

// CreatePatient handles POST /api/patients
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	var in services.PatientInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	patient, err := h.patients.Create(r.Context(), doctor.Username, in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "patient": patient})
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	patient, err := h.patients.Get(r.Context(), doctor.Username, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "patient": patient})
}

// UpdatePatient handles PUT /api/patients/{id}
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	var in services.PatientInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	patient, err := h.patients.Update(r.Context(), doctor.Username, r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "patient": patient})
}

// DeletePatient handles DELETE /api/patients/{id}
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	if err := h.patients.Delete(r.Context(), doctor.Username, r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// ListSessions handles GET /api/patients/{id}/sessions
func (h *PatientHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	sessions, err := h.prescriptions.History(r.Context(), doctor, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// SaveSession handles POST /api/patients/{id}/sessions
func (h *PatientHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	var req services.PrescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	req.PatientID = r.PathValue("id")

	session, err := h.prescriptions.SaveSession(r.Context(), doctor, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "session": session})
}

// RequestDelivery handles POST /api/patients/{id}/delivery
func (h *PatientHandler) RequestDelivery(w http.ResponseWriter, r *http.Request) {
	doctor, ok := currentDoctor(w, r)
	if !ok {
		return
	}
	baseURL := BaseURL(r, h.publicBaseURL)
	patient, err := h.delivery.RequestDelivery(r.Context(), doctor, r.PathValue("id"), baseURL)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"patient": patient,
		"link":    h.delivery.ConfirmationLink(baseURL, patient.ID),
	})
}

// currentDoctor returns the doctor attached by RequireDoctor.
func currentDoctor(w http.ResponseWriter, r *http.Request) (*entities.Doctor, bool) {
	doctor, ok := middleware.DoctorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return doctor, ok
}
