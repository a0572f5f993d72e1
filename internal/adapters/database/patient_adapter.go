package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// PatientAdapter implements PatientRepository on Postgres
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var patientColumns = []interface{}{
	"id", "name", "email", "phone", "age", "gender", "address", "notes",
	"doctor_username", "delivery_status", "created_at", "updated_at",
}

func nullAge(age *int) sql.NullInt64 {
	if age == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*age), Valid: true}
}

func patientRecord(p *entities.Patient) goqu.Record {
	return goqu.Record{
		"name":            p.Name,
		"email":           p.Email,
		"phone":           p.Phone,
		"age":             nullAge(p.Age),
		"gender":          p.Gender,
		"address":         p.Address,
		"notes":           p.Notes,
		"doctor_username": p.DoctorUsername,
		"delivery_status": string(p.DeliveryStatus),
		"updated_at":      p.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*entities.Patient, error) {
	p := &entities.Patient{}
	var age sql.NullInt64
	var status string
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &age, &p.Gender, &p.Address, &p.Notes,
		&p.DoctorUsername, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.DeliveryStatus = entities.DeliveryStatus(status)
	return p, nil
}

// Create creates a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	record := patientRecord(patient)
	record["id"] = patient.ID
	record["created_at"] = patient.CreatedAt

	query, args, err := a.db.Insert("patients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}
	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}
	return patient, nil
}

// Update updates a patient
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	if patient.UpdatedAt.IsZero() {
		patient.UpdatedAt = time.Now()
	}

	query, args, err := a.db.Update("patients").
		Set(patientRecord(patient)).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}
	return nil
}

// Delete removes the patient and its diagnosis sessions in one transaction
func (a *PatientAdapter) Delete(ctx context.Context, id string) error {
	sessionsQuery, sessionsArgs, err := a.db.Delete("diagnosis_sessions").Where(goqu.Ex{"patient_id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	patientQuery, patientArgs, err := a.db.Delete("patients").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, sessionsQuery, sessionsArgs...); err != nil {
		return apperrors.NewInternalError("failed to delete diagnosis sessions", err)
	}
	result, err := tx.ExecContext(ctx, patientQuery, patientArgs...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit patient delete", err)
	}
	return nil
}

// List returns all patients ordered by name
func (a *PatientAdapter) List(ctx context.Context) ([]*entities.Patient, error) {
	return a.list(ctx, nil)
}

// ListByDoctor returns a doctor's patients ordered by name
func (a *PatientAdapter) ListByDoctor(ctx context.Context, doctorUsername string) ([]*entities.Patient, error) {
	return a.list(ctx, goqu.Ex{"doctor_username": doctorUsername})
}

func (a *PatientAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")
	if where != nil {
		ds = ds.Where(where)
	}
	ds = ds.Order(goqu.L("lower(name)").Asc(), goqu.I("id").Asc())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patients", err)
	}
	return patients, nil
}
