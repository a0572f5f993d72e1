package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// DiagnosisSessionAdapter implements DiagnosisSessionRepository on Postgres.
// The parsed medication order is stored flat next to the plan text.
type DiagnosisSessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDiagnosisSessionAdapter creates a new diagnosis session adapter
func NewDiagnosisSessionAdapter(client *postgres.Client) repositories.DiagnosisSessionRepository {
	return &DiagnosisSessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a session
func (a *DiagnosisSessionAdapter) Create(ctx context.Context, session *entities.DiagnosisSession) error {
	record := goqu.Record{
		"id":         session.ID,
		"patient_id": session.PatientID,
		"diagnosis":  session.Diagnosis,
		"plan":       session.Plan,
		"medication": session.Medication.Medication,
		"dosage":     session.Medication.Dosage,
		"days":       session.Medication.Days,
		"created_at": session.CreatedAt,
	}

	query, args, err := a.db.Insert("diagnosis_sessions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create diagnosis session", err)
	}
	return nil
}

// ListByPatient returns a patient's sessions, newest first
func (a *DiagnosisSessionAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.DiagnosisSession, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "diagnosis", "plan", "medication", "dosage", "days", "created_at",
	).From("diagnosis_sessions").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list diagnosis sessions", err)
	}
	defer rows.Close()

	var sessions []*entities.DiagnosisSession
	for rows.Next() {
		s := &entities.DiagnosisSession{}
		if err := rows.Scan(
			&s.ID, &s.PatientID, &s.Diagnosis, &s.Plan,
			&s.Medication.Medication, &s.Medication.Dosage, &s.Medication.Days,
			&s.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan diagnosis session", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating diagnosis sessions", err)
	}
	return sessions, nil
}
