package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	"github.com/zatekoja/clinicportal/pkg/retry"
)

// ReindexSummary counts the outcome of a reindex run.
type ReindexSummary struct {
	Patients int
	Indexed  int
	Failed   int
}

// ReindexService rebuilds the prescription search index from stored sessions.
type ReindexService struct {
	patients    repositories.PatientRepository
	sessions    repositories.DiagnosisSessionRepository
	search      providers.PrescriptionSearchProvider
	workerCount int
	retry       retry.Config
}

func NewReindexService(
	patients repositories.PatientRepository,
	sessions repositories.DiagnosisSessionRepository,
	search providers.PrescriptionSearchProvider,
	workers int,
) *ReindexService {
	if workers <= 0 {
		workers = 1
	}
	return &ReindexService{
		patients:    patients,
		sessions:    sessions,
		search:      search,
		workerCount: workers,
		retry: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        2 * time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 10 * time.Second,
		},
	}
}

// SetRetry overrides the per-document retry policy.
func (s *ReindexService) SetRetry(cfg retry.Config) {
	s.retry = cfg
}

func (s *ReindexService) ReindexAll(ctx context.Context) (*ReindexSummary, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	var indexed, failed int64
	patientChan := make(chan *entities.Patient, len(patients))
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range patientChan {
				ok, bad := s.reindexPatient(ctx, p)
				atomic.AddInt64(&indexed, int64(ok))
				atomic.AddInt64(&failed, int64(bad))
			}
		}()
	}

	for _, p := range patients {
		select {
		case patientChan <- p:
		case <-ctx.Done():
			close(patientChan)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(patientChan)
	wg.Wait()

	return &ReindexSummary{
		Patients: len(patients),
		Indexed:  int(indexed),
		Failed:   int(failed),
	}, nil
}

// ReindexPatient indexes every session of one patient.
func (s *ReindexService) ReindexPatient(ctx context.Context, patientID string) (*ReindexSummary, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	ok, bad := s.reindexPatient(ctx, patient)
	return &ReindexSummary{Patients: 1, Indexed: ok, Failed: bad}, nil
}

func (s *ReindexService) reindexPatient(ctx context.Context, patient *entities.Patient) (indexed, failed int) {
	logger := log.With().Str("patient_id", patient.ID).Logger()

	sessions, err := s.sessions.ListByPatient(ctx, patient.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list sessions")
		return 0, 1
	}

	for _, session := range sessions {
		doc := prescriptionDocument(patient.DoctorUsername, patient, session)
		err := retry.Do(ctx, s.retry, func() error {
			return s.search.Index(ctx, doc)
		})
		if err != nil {
			failed++
			logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to index prescription")
			continue
		}
		indexed++
	}
	return indexed, failed
}
