package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// DoctorAdapter implements DoctorRepository on Postgres
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var doctorColumns = []interface{}{"username", "name", "qualifications", "created_at"}

// Get retrieves a doctor by username
func (a *DoctorAdapter) Get(ctx context.Context, username string) (*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"username": username}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor := &entities.Doctor{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&doctor.Username,
		&doctor.Name,
		&doctor.Qualifications,
		&doctor.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", username))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// Save inserts the doctor or replaces the name and qualifications of an existing one
func (a *DoctorAdapter) Save(ctx context.Context, doctor *entities.Doctor) error {
	record := goqu.Record{
		"username":       doctor.Username,
		"name":           doctor.Name,
		"qualifications": doctor.Qualifications,
		"created_at":     doctor.CreatedAt,
	}

	query, args, err := a.db.Insert("doctors").
		Rows(record).
		OnConflict(goqu.DoUpdate("username", goqu.Record{
			"name":           goqu.L("EXCLUDED.name"),
			"qualifications": goqu.L("EXCLUDED.qualifications"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save doctor", err)
	}
	return nil
}

// List returns every doctor ordered by name
func (a *DoctorAdapter) List(ctx context.Context) ([]*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Order(goqu.L("lower(name)").Asc(), goqu.I("username").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	var doctors []*entities.Doctor
	for rows.Next() {
		d := &entities.Doctor{}
		if err := rows.Scan(&d.Username, &d.Name, &d.Qualifications, &d.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating doctors", err)
	}
	return doctors, nil
}
