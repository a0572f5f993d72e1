package repositories

import (
	"context"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create creates a new patient
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// Update updates a patient
	Update(ctx context.Context, patient *entities.Patient) error

	// Delete deletes a patient together with its diagnosis sessions
	Delete(ctx context.Context, id string) error

	// List returns all patients ordered by name
	List(ctx context.Context) ([]*entities.Patient, error)

	// ListByDoctor returns a doctor's patients ordered by name
	ListByDoctor(ctx context.Context, doctorUsername string) ([]*entities.Patient, error)
}

// DiagnosisSessionRepository defines the interface for consultation history.
type DiagnosisSessionRepository interface {
	Create(ctx context.Context, session *entities.DiagnosisSession) error

	// ListByPatient returns a patient's sessions, newest first
	ListByPatient(ctx context.Context, patientID string) ([]*entities.DiagnosisSession, error)
}
