package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// PatientInput is the editable part of a patient as submitted by a doctor.
// Age is free text; blank means unknown.
type PatientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Age     string `json:"age"`
	Gender  string `json:"gender"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// PatientService manages a doctor's patients. Every operation is scoped to
// the acting doctor; touching another doctor's patient is FORBIDDEN.
type PatientService struct {
	patients repositories.PatientRepository
	sessions repositories.DiagnosisSessionRepository
	now      func() time.Time
}

// NewPatientService creates a new patient service
func NewPatientService(patients repositories.PatientRepository, sessions repositories.DiagnosisSessionRepository) *PatientService {
	return &PatientService{patients: patients, sessions: sessions, now: time.Now}
}

// ParseAge reads a non-negative age. Blank input is unknown (nil).
func ParseAge(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil || age < 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("age %q must be a non-negative whole number", raw))
	}
	return &age, nil
}

func (in PatientInput) normalized() PatientInput {
	return PatientInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Age:     strings.TrimSpace(in.Age),
		Gender:  strings.TrimSpace(in.Gender),
		Address: strings.TrimSpace(in.Address),
		Notes:   strings.TrimSpace(in.Notes),
	}
}

func (in PatientInput) validate() (*int, error) {
	if in.Name == "" {
		return nil, apperrors.NewValidationError("patient name is required")
	}
	if in.Email == "" && in.Phone == "" {
		return nil, apperrors.NewValidationError("patient email or phone is required")
	}
	return ParseAge(in.Age)
}

func (in PatientInput) applyTo(p *entities.Patient, age *int) {
	p.Name = in.Name
	p.Email = in.Email
	p.Phone = in.Phone
	p.Age = age
	p.Gender = in.Gender
	p.Address = in.Address
	p.Notes = in.Notes
}

// Create registers a new patient under doctor.
func (s *PatientService) Create(ctx context.Context, doctor string, in PatientInput) (*entities.Patient, error) {
	in = in.normalized()
	age, err := in.validate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	patient := &entities.Patient{
		ID:             uuid.New().String(),
		DoctorUsername: doctor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	in.applyTo(patient, age)

	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// Get returns one of doctor's patients.
func (s *PatientService) Get(ctx context.Context, doctor, id string) (*entities.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patient.DoctorUsername != doctor {
		return nil, apperrors.NewForbiddenError("patient belongs to another doctor")
	}
	return patient, nil
}

// Update replaces the editable fields; owner and delivery status are kept.
func (s *PatientService) Update(ctx context.Context, doctor, id string, in PatientInput) (*entities.Patient, error) {
	in = in.normalized()
	age, err := in.validate()
	if err != nil {
		return nil, err
	}

	patient, err := s.Get(ctx, doctor, id)
	if err != nil {
		return nil, err
	}
	in.applyTo(patient, age)
	patient.UpdatedAt = s.now()

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// Delete removes a patient and its history.
func (s *PatientService) Delete(ctx context.Context, doctor, id string) error {
	if _, err := s.Get(ctx, doctor, id); err != nil {
		return err
	}
	return s.patients.Delete(ctx, id)
}

// List returns doctor's patients sorted by name.
func (s *PatientService) List(ctx context.Context, doctor string) ([]*entities.Patient, error) {
	return s.patients.ListByDoctor(ctx, doctor)
}

// History returns a patient's diagnosis sessions, newest first.
func (s *PatientService) History(ctx context.Context, doctor, id string) ([]*entities.DiagnosisSession, error) {
	if _, err := s.Get(ctx, doctor, id); err != nil {
		return nil, err
	}
	return s.sessions.ListByPatient(ctx, id)
}
