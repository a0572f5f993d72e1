package services

import (
	"context"
	"strings"
	"time"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// DoctorProfile is the editable part of a doctor.
type DoctorProfile struct {
	Name           string `json:"name"`
	Qualifications string `json:"qualifications"`
}

// DoctorService manages doctor profiles.
type DoctorService struct {
	doctors repositories.DoctorRepository
	now     func() time.Time
}

// NewDoctorService creates a new doctor service
func NewDoctorService(doctors repositories.DoctorRepository) *DoctorService {
	return &DoctorService{doctors: doctors, now: time.Now}
}

// Get returns the doctor with the given username.
func (s *DoctorService) Get(ctx context.Context, username string) (*entities.Doctor, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperrors.NewUnauthorizedError("unauthorized")
	}
	return s.doctors.Get(ctx, username)
}

// SaveProfile creates the doctor on first use and updates the profile after.
func (s *DoctorService) SaveProfile(ctx context.Context, username string, profile DoctorProfile) (*entities.Doctor, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewUnauthorizedError("unauthorized")
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("doctor name is required")
	}

	doctor, err := s.doctors.Get(ctx, username)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		doctor = &entities.Doctor{Username: username, CreatedAt: s.now()}
	}
	doctor.Name = name
	doctor.Qualifications = strings.TrimSpace(profile.Qualifications)

	if err := s.doctors.Save(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

// List returns every doctor sorted by name.
func (s *DoctorService) List(ctx context.Context) ([]*entities.Doctor, error) {
	return s.doctors.List(ctx)
}
