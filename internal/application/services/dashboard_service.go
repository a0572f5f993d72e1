package services

import (
	"context"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
)

// DashboardPatient is a patient row on the admin dashboard.
type DashboardPatient struct {
	*entities.Patient
	DeliveryMessage string                       `json:"deliveryMessage"`
	ShareLink       string                       `json:"shareLink,omitempty"`
	History         []*entities.DiagnosisSession `json:"history"`
}

// Dashboard is the admin overview for one selected doctor.
type Dashboard struct {
	Doctors        []*entities.Doctor  `json:"doctors"`
	SelectedDoctor *entities.Doctor    `json:"selectedDoctor"`
	Patients       []*DashboardPatient `json:"patients"`
	PatientCount   int                 `json:"patientCount"`
}

// ShareLinkFunc builds a chat link that opens a conversation with phone.
type ShareLinkFunc func(phone, text string) string

// DashboardService assembles the admin dashboard.
type DashboardService struct {
	doctors   repositories.DoctorRepository
	patients  repositories.PatientRepository
	sessions  repositories.DiagnosisSessionRepository
	delivery  *DeliveryService
	shareLink ShareLinkFunc
}

// NewDashboardService creates the dashboard service. shareLink may be nil.
func NewDashboardService(
	doctors repositories.DoctorRepository,
	patients repositories.PatientRepository,
	sessions repositories.DiagnosisSessionRepository,
	delivery *DeliveryService,
	shareLink ShareLinkFunc,
) *DashboardService {
	return &DashboardService{
		doctors:   doctors,
		patients:  patients,
		sessions:  sessions,
		delivery:  delivery,
		shareLink: shareLink,
	}
}

// Build returns the dashboard for selected, or for the first doctor by name
// when selected is empty or unknown.
func (s *DashboardService) Build(ctx context.Context, selected, baseURL string) (*Dashboard, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{Doctors: doctors, Patients: []*DashboardPatient{}}
	for _, d := range doctors {
		if d.Username == selected {
			dash.SelectedDoctor = d
			break
		}
	}
	if dash.SelectedDoctor == nil && len(doctors) > 0 {
		dash.SelectedDoctor = doctors[0]
	}
	if dash.SelectedDoctor == nil {
		return dash, nil
	}

	patients, err := s.patients.ListByDoctor(ctx, dash.SelectedDoctor.Username)
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		history, err := s.sessions.ListByPatient(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		row := &DashboardPatient{
			Patient:         p,
			DeliveryMessage: s.delivery.Message(baseURL, p.ID),
			History:         history,
		}
		if s.shareLink != nil && p.Phone != "" {
			row.ShareLink = s.shareLink(p.Phone, row.DeliveryMessage)
		}
		dash.Patients = append(dash.Patients, row)
	}
	dash.PatientCount = len(dash.Patients)
	return dash, nil
}
