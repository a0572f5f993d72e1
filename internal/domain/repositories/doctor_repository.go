package repositories

import (
	"context"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
)

// DoctorRepository defines the interface for doctor data operations
type DoctorRepository interface {
	// Get retrieves a doctor by username
	Get(ctx context.Context, username string) (*entities.Doctor, error)

	// Save creates or replaces a doctor
	Save(ctx context.Context, doctor *entities.Doctor) error

	// List returns all doctors ordered by name, case-insensitively
	List(ctx context.Context) ([]*entities.Doctor, error)
}
