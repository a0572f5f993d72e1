package providers

import (
	"context"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
)

// PrescriptionSearchProvider indexes diagnosis sessions for full-text lookup.
type PrescriptionSearchProvider interface {
	Index(ctx context.Context, doc *entities.PrescriptionDocument) error

	// Search returns matching documents; a non-empty doctorUsername restricts
	// results to that doctor's patients.
	Search(ctx context.Context, query, doctorUsername string, limit int) ([]*entities.PrescriptionDocument, error)

	Delete(ctx context.Context, id string) error
}
