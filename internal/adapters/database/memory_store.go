package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// MemoryStore keeps doctors, patients and sessions in process memory. It is
// used when no database is configured and implements all three repositories.
// Values are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	doctors  map[string]entities.Doctor
	patients map[string]entities.Patient
	sessions map[string][]entities.DiagnosisSession // by patient ID, insertion order
}

var (
	_ repositories.DoctorRepository           = (*MemoryDoctors)(nil)
	_ repositories.PatientRepository          = (*MemoryPatients)(nil)
	_ repositories.DiagnosisSessionRepository = (*MemorySessions)(nil)
)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		doctors:  make(map[string]entities.Doctor),
		patients: make(map[string]entities.Patient),
		sessions: make(map[string][]entities.DiagnosisSession),
	}
}

// Doctors returns the store as a DoctorRepository.
func (s *MemoryStore) Doctors() *MemoryDoctors { return &MemoryDoctors{s} }

// Patients returns the store as a PatientRepository.
func (s *MemoryStore) Patients() *MemoryPatients { return &MemoryPatients{s} }

// Sessions returns the store as a DiagnosisSessionRepository.
func (s *MemoryStore) Sessions() *MemorySessions { return &MemorySessions{s} }

// MemoryDoctors is the doctor view of a MemoryStore.
type MemoryDoctors struct{ s *MemoryStore }

func (r *MemoryDoctors) Get(_ context.Context, username string) (*entities.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.doctors[username]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", username))
	}
	return &d, nil
}

func (r *MemoryDoctors) Save(_ context.Context, doctor *entities.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.doctors[doctor.Username]; ok && doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = existing.CreatedAt
	}
	r.s.doctors[doctor.Username] = *doctor
	return nil
}

func (r *MemoryDoctors) List(_ context.Context) ([]*entities.Doctor, error) {
	r.s.mu.RLock()
	out := make([]*entities.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		d := d
		out = append(out, &d)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return lessFold(out[i].Name, out[j].Name, out[i].Username, out[j].Username)
	})
	return out, nil
}

// MemoryPatients is the patient view of a MemoryStore.
type MemoryPatients struct{ s *MemoryStore }

func (r *MemoryPatients) Create(_ context.Context, patient *entities.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[patient.ID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("patient with id %s already exists", patient.ID))
	}
	r.s.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *MemoryPatients) GetByID(_ context.Context, id string) (*entities.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	out := clonePatient(&p)
	return &out, nil
}

func (r *MemoryPatients) Update(_ context.Context, patient *entities.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[patient.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}
	r.s.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *MemoryPatients) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	delete(r.s.patients, id)
	delete(r.s.sessions, id)
	return nil
}

func (r *MemoryPatients) List(_ context.Context) ([]*entities.Patient, error) {
	return r.filter(func(*entities.Patient) bool { return true }), nil
}

func (r *MemoryPatients) ListByDoctor(_ context.Context, doctorUsername string) ([]*entities.Patient, error) {
	return r.filter(func(p *entities.Patient) bool { return p.DoctorUsername == doctorUsername }), nil
}

func (r *MemoryPatients) filter(keep func(*entities.Patient) bool) []*entities.Patient {
	r.s.mu.RLock()
	var out []*entities.Patient
	for _, p := range r.s.patients {
		if keep(&p) {
			c := clonePatient(&p)
			out = append(out, &c)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return lessFold(out[i].Name, out[j].Name, out[i].ID, out[j].ID)
	})
	return out
}

// MemorySessions is the diagnosis session view of a MemoryStore.
type MemorySessions struct{ s *MemoryStore }

func (r *MemorySessions) Create(_ context.Context, session *entities.DiagnosisSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.PatientID] = append(r.s.sessions[session.PatientID], *session)
	return nil
}

func (r *MemorySessions) ListByPatient(_ context.Context, patientID string) ([]*entities.DiagnosisSession, error) {
	r.s.mu.RLock()
	stored := r.s.sessions[patientID]
	out := make([]*entities.DiagnosisSession, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		s := stored[i]
		out = append(out, &s)
	}
	r.s.mu.RUnlock()

	// Insertion order breaks ties between equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clonePatient(p *entities.Patient) entities.Patient {
	c := *p
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	return c
}

func lessFold(a, b, tieA, tieB string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return tieA < tieB
}
