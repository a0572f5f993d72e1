package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
	"github.com/zatekoja/clinicportal/pkg/retry"
)

func seedReindexStore(t *testing.T) *database.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := database.NewMemoryStore()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for _, p := range []*entities.Patient{
		{ID: "p1", Name: "Ada", Phone: "+2348000000001", DoctorUsername: "drjane"},
		{ID: "p2", Name: "Bola", Email: "bola@example.com", DoctorUsername: "drjoe"},
	} {
		require.NoError(t, store.Patients().Create(ctx, p))
	}
	sessions := []*entities.DiagnosisSession{
		{ID: "s1", PatientID: "p1", Diagnosis: "malaria", Plan: "artemether twice a day for 3 days", CreatedAt: now},
		{ID: "s2", PatientID: "p1", Diagnosis: "fever", Plan: "paracetamol", CreatedAt: now.Add(time.Hour)},
		{ID: "s3", PatientID: "p2", Diagnosis: "cough", Plan: "syrup", CreatedAt: now},
	}
	for _, s := range sessions {
		require.NoError(t, store.Sessions().Create(ctx, s))
	}
	return store
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func TestReindexService_ReindexAll(t *testing.T) {
	store := seedReindexStore(t)
	search := new(MockSearchProvider)
	search.On("Index", mock.Anything, mock.MatchedBy(func(d *entities.PrescriptionDocument) bool {
		return d.PatientID == "p1" && d.DoctorUsername == "drjane" && d.PatientName == "Ada"
	})).Return(nil).Twice()
	search.On("Index", mock.Anything, mock.MatchedBy(func(d *entities.PrescriptionDocument) bool {
		return d.ID == "s3" && d.DoctorUsername == "drjoe" && d.Diagnosis == "cough"
	})).Return(nil).Once()

	svc := services.NewReindexService(store.Patients(), store.Sessions(), search, 2)
	summary, err := svc.ReindexAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &services.ReindexSummary{Patients: 2, Indexed: 3}, summary)
	search.AssertExpectations(t)
}

func TestReindexService_RetriesThenCountsFailure(t *testing.T) {
	store := seedReindexStore(t)
	search := new(MockSearchProvider)
	search.On("Index", mock.Anything, mock.MatchedBy(func(d *entities.PrescriptionDocument) bool {
		return d.ID == "s3"
	})).Return(errors.New("typesense down"))

	svc := services.NewReindexService(store.Patients(), store.Sessions(), search, 0)
	svc.SetRetry(fastRetry())

	summary, err := svc.ReindexPatient(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	search.AssertNumberOfCalls(t, "Index", 2)
}

func TestReindexService_ReindexPatientNotFound(t *testing.T) {
	svc := services.NewReindexService(database.NewMemoryStore().Patients(), database.NewMemoryStore().Sessions(), new(MockSearchProvider), 1)
	_, err := svc.ReindexPatient(context.Background(), "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

func TestReindexService_Cancelled(t *testing.T) {
	store := seedReindexStore(t)
	search := new(MockSearchProvider)
	search.On("Index", mock.Anything, mock.Anything).Return(nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := services.NewReindexService(store.Patients(), store.Sessions(), search, 1)
	summary, err := svc.ReindexAll(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, summary)
	}
}
