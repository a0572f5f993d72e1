package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

func TestDoctorService_SaveProfile(t *testing.T) {
	store := database.NewMemoryStore()
	svc := services.NewDoctorService(store.Doctors())
	ctx := context.Background()

	_, err := svc.Get(ctx, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeUnauthorized))

	_, err = svc.SaveProfile(ctx, "drade", services.DoctorProfile{Name: " "})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	created, err := svc.SaveProfile(ctx, "drade", services.DoctorProfile{Name: "Ade", Qualifications: "MBBS"})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := svc.SaveProfile(ctx, "drade", services.DoctorProfile{Name: "Ade Bello"})
	require.NoError(t, err)
	assert.Equal(t, "Ade Bello", updated.Name)
	assert.Equal(t, "", updated.Qualifications)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	got, err := svc.Get(ctx, "drade")
	require.NoError(t, err)
	assert.Equal(t, "Ade Bello", got.Name)
}

func TestDashboardService_Build(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	for _, d := range []*entities.Doctor{{Username: "zed", Name: "zed"}, {Username: "amy", Name: "Amy"}} {
		require.NoError(t, store.Doctors().Save(ctx, d))
	}
	require.NoError(t, store.Patients().Create(ctx, &entities.Patient{ID: "p1", Name: "Kemi", Phone: "+234 1", DoctorUsername: "zed"}))
	require.NoError(t, store.Patients().Create(ctx, &entities.Patient{ID: "p2", Name: "Ola", Email: "o@x", DoctorUsername: "zed"}))
	require.NoError(t, store.Sessions().Create(ctx, &entities.DiagnosisSession{ID: "s1", PatientID: "p1", CreatedAt: time.Now()}))

	delivery := services.NewDeliveryService("k", store.Patients(), nil)
	share := func(phone, text string) string { return "wa:" + phone }
	svc := services.NewDashboardService(store.Doctors(), store.Patients(), store.Sessions(), delivery, share)

	dash, err := svc.Build(ctx, "", "http://h")
	require.NoError(t, err)
	require.Len(t, dash.Doctors, 2)
	assert.Equal(t, "amy", dash.SelectedDoctor.Username, "defaults to first doctor by name")
	assert.Empty(t, dash.Patients)

	dash, err = svc.Build(ctx, "zed", "http://h")
	require.NoError(t, err)
	require.Equal(t, 2, dash.PatientCount)
	kemi := dash.Patients[0]
	assert.Equal(t, "Kemi", kemi.Name)
	assert.Equal(t, delivery.Message("http://h", "p1"), kemi.DeliveryMessage)
	assert.Equal(t, "wa:+234 1", kemi.ShareLink)
	assert.Len(t, kemi.History, 1)
	assert.Empty(t, dash.Patients[1].ShareLink)
}

func TestDashboardService_NoDoctors(t *testing.T) {
	store := database.NewMemoryStore()
	svc := services.NewDashboardService(store.Doctors(), store.Patients(), store.Sessions(),
		services.NewDeliveryService("k", store.Patients(), nil), nil)

	dash, err := svc.Build(context.Background(), "anyone", "http://h")
	require.NoError(t, err)
	assert.Nil(t, dash.SelectedDoctor)
	assert.Empty(t, dash.Patients)
}
