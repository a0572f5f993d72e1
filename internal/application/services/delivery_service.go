package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// Delivery choices accepted by Respond.
const (
	ChoiceYes = "yes"
	ChoiceNo  = "no"
)

// ResponseLinks are the two answers offered on the confirmation page.
type ResponseLinks struct {
	Yes string `json:"yes"`
	No  string `json:"no"`
}

// DeliveryService signs and verifies medicine delivery links and records the
// patient's answer.
type DeliveryService struct {
	secret     []byte
	patients   repositories.PatientRepository
	notifier   providers.Notifier
	events     providers.EventBus
	phoneFirst bool
	now        func() time.Time
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(secret string, patients repositories.PatientRepository, notifier providers.Notifier) *DeliveryService {
	return &DeliveryService{
		secret:   []byte(secret),
		patients: patients,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetEventBus enables publishing of delivery answers.
func (s *DeliveryService) SetEventBus(bus providers.EventBus) {
	s.events = bus
}

// SetPhoneFirst makes delivery requests go to the patient's phone when known.
func (s *DeliveryService) SetPhoneFirst(phoneFirst bool) {
	s.phoneFirst = phoneFirst
}

// Token is the hex HMAC-SHA256 of the patient id.
func (s *DeliveryService) Token(patientID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(patientID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether token was issued for patientID.
func (s *DeliveryService) Verify(patientID, token string) bool {
	if patientID == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(s.Token(patientID)), []byte(token))
}

// ConfirmationLink builds the link sent to the patient.
func (s *DeliveryService) ConfirmationLink(baseURL, patientID string) string {
	q := url.Values{}
	q.Set("patient", patientID)
	q.Set("token", s.Token(patientID))
	return strings.TrimSuffix(baseURL, "/") + "/delivery/confirm?" + encodeOrdered(q, "patient", "token")
}

// Message is the text carrying the confirmation link.
func (s *DeliveryService) Message(baseURL, patientID string) string {
	return "Do want ur medicine delivered? Tap this link: " + s.ConfirmationLink(baseURL, patientID)
}

// ResponseLinks builds the yes/no links for a verified patient.
func (s *DeliveryService) ResponseLinks(baseURL, patientID string) ResponseLinks {
	link := func(choice string) string {
		q := url.Values{}
		q.Set("patient", patientID)
		q.Set("choice", choice)
		q.Set("token", s.Token(patientID))
		return strings.TrimSuffix(baseURL, "/") + "/delivery/respond?" + encodeOrdered(q, "patient", "choice", "token")
	}
	return ResponseLinks{Yes: link(ChoiceYes), No: link(ChoiceNo)}
}

// Confirm checks a confirmation link and returns its patient.
func (s *DeliveryService) Confirm(ctx context.Context, patientID, token string) (*entities.Patient, error) {
	if patientID == "" || token == "" {
		return nil, apperrors.NewValidationError("invalid link")
	}
	if !s.Verify(patientID, token) {
		return nil, apperrors.NewForbiddenError("invalid token")
	}
	return s.patients.GetByID(ctx, patientID)
}

// Respond records the patient's answer.
func (s *DeliveryService) Respond(ctx context.Context, patientID, token, choice string) (*entities.Patient, error) {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if choice != ChoiceYes && choice != ChoiceNo {
		return nil, apperrors.NewValidationError("invalid link")
	}
	patient, err := s.Confirm(ctx, patientID, token)
	if err != nil {
		return nil, err
	}

	patient.DeliveryStatus = entities.DeliveryStatusDeclined
	if choice == ChoiceYes {
		patient.DeliveryStatus = entities.DeliveryStatusAccepted
	}
	patient.UpdatedAt = s.now()
	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}

	log.Info().Str("patient_id", patient.ID).Str("choice", choice).Msg("delivery response recorded")
	if s.events != nil {
		publish(ctx, s.events, entities.NewPrescriptionEvent(entities.PrescriptionEventDeliveryResponse, patient.ID, "", map[string]interface{}{
			"choice": choice,
			"status": string(patient.DeliveryStatus),
		}))
	}
	return patient, nil
}

// RequestDelivery marks the patient pending and sends the confirmation link.
func (s *DeliveryService) RequestDelivery(ctx context.Context, doctor *entities.Doctor, patientID, baseURL string) (*entities.Patient, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.DoctorUsername != doctor.Username {
		return nil, apperrors.NewForbiddenError("patient belongs to another doctor")
	}

	msg := providers.Message{
		To:      patient.Contact(s.phoneFirst),
		Subject: "Medicine delivery",
		Body:    s.Message(baseURL, patient.ID),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return nil, apperrors.NewExternalError("failed to send delivery link", err)
	}

	patient.DeliveryStatus = entities.DeliveryStatusPending
	patient.UpdatedAt = s.now()
	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// encodeOrdered encodes q with keys in the given order rather than sorted.
func encodeOrdered(q url.Values, keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(q.Get(k)))
	}
	return strings.Join(parts, "&")
}
