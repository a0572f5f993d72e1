package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// PrescriptionRequest is what a doctor submits after a consultation. Either
// MedicationPlan or Medication must be set; the plan wins when both are.
type PrescriptionRequest struct {
	PatientID      string `json:"patient_id"`
	Diagnosis      string `json:"diagnosis"`
	MedicationPlan string `json:"medication_plan"`
	Medication     string `json:"medication"`
}

func (r PrescriptionRequest) plan() string {
	if plan := strings.TrimSpace(r.MedicationPlan); plan != "" {
		return plan
	}
	return strings.TrimSpace(r.Medication)
}

// PrescriptionService records diagnosis sessions and sends prescriptions to
// patients. The search index and event bus are optional.
type PrescriptionService struct {
	patients   repositories.PatientRepository
	sessions   repositories.DiagnosisSessionRepository
	parser     *MedicationParseService
	notifier   providers.Notifier
	search     providers.PrescriptionSearchProvider
	events     providers.EventBus
	phoneFirst bool
	now        func() time.Time
}

// NewPrescriptionService creates a new prescription service
func NewPrescriptionService(
	patients repositories.PatientRepository,
	sessions repositories.DiagnosisSessionRepository,
	parser *MedicationParseService,
	notifier providers.Notifier,
) *PrescriptionService {
	return &PrescriptionService{
		patients: patients,
		sessions: sessions,
		parser:   parser,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetSearch enables indexing of saved sessions.
func (s *PrescriptionService) SetSearch(search providers.PrescriptionSearchProvider) {
	s.search = search
}

// SetEventBus enables publishing of prescription events.
func (s *PrescriptionService) SetEventBus(bus providers.EventBus) {
	s.events = bus
}

// SetPhoneFirst makes prescriptions go to the patient's phone when known.
func (s *PrescriptionService) SetPhoneFirst(phoneFirst bool) {
	s.phoneFirst = phoneFirst
}

// Prescribe sends the prescription to the patient and records the session.
// Nothing is stored when the message cannot be sent.
func (s *PrescriptionService) Prescribe(ctx context.Context, doctor *entities.Doctor, req PrescriptionRequest) (*entities.DiagnosisSession, error) {
	plan := req.plan()
	if strings.TrimSpace(req.PatientID) == "" || plan == "" {
		return nil, apperrors.NewValidationError("patient and medication plan are required")
	}

	patient, err := s.ownedPatient(ctx, doctor, req.PatientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	msg := PrescriptionMessage(doctor, patient, strings.TrimSpace(req.Diagnosis), plan, now)
	msg.To = patient.Contact(s.phoneFirst)
	if err := s.notifier.Send(ctx, msg); err != nil {
		return nil, apperrors.NewExternalError("failed to send prescription", err)
	}

	return s.record(ctx, doctor, patient, strings.TrimSpace(req.Diagnosis), plan, now, true)
}

// SaveSession records a consultation without messaging the patient. A
// diagnosis is required here.
func (s *PrescriptionService) SaveSession(ctx context.Context, doctor *entities.Doctor, req PrescriptionRequest) (*entities.DiagnosisSession, error) {
	plan := req.plan()
	diagnosis := strings.TrimSpace(req.Diagnosis)
	if strings.TrimSpace(req.PatientID) == "" || diagnosis == "" || plan == "" {
		return nil, apperrors.NewValidationError("patient, diagnosis, and medication plan are required")
	}

	patient, err := s.ownedPatient(ctx, doctor, req.PatientID)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, doctor, patient, diagnosis, plan, s.now(), false)
}

func (s *PrescriptionService) ownedPatient(ctx context.Context, doctor *entities.Doctor, patientID string) (*entities.Patient, error) {
	patient, err := s.patients.GetByID(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return nil, err
	}
	if patient.DoctorUsername != doctor.Username {
		return nil, apperrors.NewForbiddenError("patient belongs to another doctor")
	}
	return patient, nil
}

func (s *PrescriptionService) record(ctx context.Context, doctor *entities.Doctor, patient *entities.Patient, diagnosis, plan string, at time.Time, sent bool) (*entities.DiagnosisSession, error) {
	session := &entities.DiagnosisSession{
		ID:         uuid.New().String(),
		PatientID:  patient.ID,
		Diagnosis:  diagnosis,
		Plan:       plan,
		Medication: s.parser.Order(ctx, plan),
		CreatedAt:  at,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	logger := log.With().Str("patient_id", patient.ID).Str("session_id", session.ID).Logger()
	logger.Info().Str("doctor", doctor.Username).Bool("sent", sent).Msg("diagnosis session saved")

	if s.search != nil {
		doc := prescriptionDocument(doctor.Username, patient, session)
		if err := s.search.Index(ctx, doc); err != nil {
			logger.Warn().Err(err).Msg("failed to index prescription")
		}
	}

	if s.events != nil && sent {
		event := entities.NewPrescriptionEvent(entities.PrescriptionEventCreated, patient.ID, session.ID, map[string]interface{}{
			"doctor":     doctor.Username,
			"medication": session.Medication.Medication,
			"dosage":     session.Medication.Dosage,
			"days":       session.Medication.Days,
		})
		publish(ctx, s.events, event)
	}
	return session, nil
}

// History returns a doctor's patient's sessions, newest first.
func (s *PrescriptionService) History(ctx context.Context, doctor *entities.Doctor, patientID string) ([]*entities.DiagnosisSession, error) {
	if _, err := s.ownedPatient(ctx, doctor, patientID); err != nil {
		return nil, err
	}
	return s.sessions.ListByPatient(ctx, patientID)
}

// Search looks up the doctor's indexed prescriptions.
func (s *PrescriptionService) Search(ctx context.Context, doctor *entities.Doctor, query string, limit int) ([]*entities.PrescriptionDocument, error) {
	if s.search == nil {
		return nil, ErrSearchUnavailable
	}
	docs, err := s.search.Search(ctx, query, doctor.Username, limit)
	if err != nil {
		return nil, apperrors.NewExternalError("prescription search failed", err)
	}
	return docs, nil
}

// ErrSearchUnavailable is returned by Search when no index is configured.
var ErrSearchUnavailable = errors.New("prescription search is not configured")

// PrescriptionMessage renders the message sent to the patient. The recipient
// is left for the caller to fill in.
func PrescriptionMessage(doctor *entities.Doctor, patient *entities.Patient, diagnosis, plan string, at time.Time) providers.Message {
	if diagnosis == "" {
		diagnosis = "N/A"
	}
	body := "Prescribed by: " + doctor.DisplayName() + "\n" +
		"Diagnosis: " + diagnosis + "\n" +
		"Plan:\n" + plan + "\n" +
		"Prescribed at: " + at.Format("2006-01-02T15:04:05")
	return providers.Message{
		Subject: "Prescription for " + patient.Name,
		Body:    body,
	}
}

func publish(ctx context.Context, bus providers.EventBus, event *entities.PrescriptionEvent) {
	for _, channel := range []string{providers.EventChannelPrescriptions, providers.GetPatientChannel(event.PatientID)} {
		if err := bus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Str("event_id", event.ID).Msg("failed to publish event")
		}
	}
}

func prescriptionDocument(doctorUsername string, patient *entities.Patient, session *entities.DiagnosisSession) *entities.PrescriptionDocument {
	return &entities.PrescriptionDocument{
		ID:             session.ID,
		PatientID:      patient.ID,
		PatientName:    patient.Name,
		DoctorUsername: doctorUsername,
		Diagnosis:      session.Diagnosis,
		Plan:           session.Plan,
		Medication:     session.Medication.Medication,
		Dosage:         session.Medication.Dosage,
		Days:           session.Medication.Days,
		CreatedAt:      session.CreatedAt,
	}
}
