package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

func newDeliveryFixture(t *testing.T) (*services.DeliveryService, *database.MemoryStore, *MockNotifier) {
	t.Helper()
	store := database.NewMemoryStore()
	require.NoError(t, store.Patients().Create(context.Background(), &entities.Patient{
		ID: "p-9", Name: "Tunde", Phone: "+234 802", Email: "t@example.com", DoctorUsername: "drade",
	}))
	notifier := new(MockNotifier)
	return services.NewDeliveryService("s3cret", store.Patients(), notifier), store, notifier
}

func TestDeliveryService_Token(t *testing.T) {
	svc, _, _ := newDeliveryFixture(t)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte("p-9"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), svc.Token("p-9"))

	assert.True(t, svc.Verify("p-9", svc.Token("p-9")))
	assert.False(t, svc.Verify("p-9", svc.Token("p-8")))
	assert.False(t, svc.Verify("p-9", ""))
	assert.False(t, svc.Verify("", svc.Token("")))

	other := services.NewDeliveryService("different", nil, nil)
	assert.NotEqual(t, svc.Token("p-9"), other.Token("p-9"))
}

func TestDeliveryService_Links(t *testing.T) {
	svc, _, _ := newDeliveryFixture(t)
	token := svc.Token("p-9")

	assert.Equal(t, "https://clinic.example/delivery/confirm?patient=p-9&token="+token,
		svc.ConfirmationLink("https://clinic.example/", "p-9"))
	assert.Equal(t, "Do want ur medicine delivered? Tap this link: http://localhost:8080/delivery/confirm?patient=p-9&token="+token,
		svc.Message("http://localhost:8080", "p-9"))

	links := svc.ResponseLinks("http://h", "p-9")
	assert.Equal(t, "http://h/delivery/respond?patient=p-9&choice=yes&token="+token, links.Yes)
	assert.Equal(t, "http://h/delivery/respond?patient=p-9&choice=no&token="+token, links.No)
}

func TestDeliveryService_Confirm(t *testing.T) {
	svc, _, _ := newDeliveryFixture(t)
	ctx := context.Background()

	_, err := svc.Confirm(ctx, "", "x")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	_, err = svc.Confirm(ctx, "p-9", "bad")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeForbidden))

	_, err = svc.Confirm(ctx, "ghost", svc.Token("ghost"))
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))

	p, err := svc.Confirm(ctx, "p-9", svc.Token("p-9"))
	require.NoError(t, err)
	assert.Equal(t, "Tunde", p.Name)
}

func TestDeliveryService_Respond(t *testing.T) {
	svc, store, _ := newDeliveryFixture(t)
	bus := newRecordingBus()
	svc.SetEventBus(bus)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "p-9", svc.Token("p-9"), "maybe")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	p, err := svc.Respond(ctx, "p-9", svc.Token("p-9"), "YES")
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryStatusAccepted, p.DeliveryStatus)

	p, err = svc.Respond(ctx, "p-9", svc.Token("p-9"), "no")
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryStatusDeclined, p.DeliveryStatus)

	stored, err := store.Patients().GetByID(ctx, "p-9")
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryStatusDeclined, stored.DeliveryStatus)

	events := bus.events(providers.GetPatientChannel("p-9"))
	require.Len(t, events, 2)
	assert.Equal(t, entities.PrescriptionEventDeliveryResponse, events[1].Type)
	assert.Equal(t, "no", events[1].Data["choice"])
}

func TestDeliveryService_RequestDelivery(t *testing.T) {
	svc, store, notifier := newDeliveryFixture(t)
	ctx := context.Background()
	doctor := &entities.Doctor{Username: "drade"}

	notifier.On("Send", mock.Anything, mock.MatchedBy(func(m providers.Message) bool {
		return m.To == "t@example.com" && m.Body == svc.Message("http://h", "p-9")
	})).Return(nil).Once()

	p, err := svc.RequestDelivery(ctx, doctor, "p-9", "http://h")
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryStatusPending, p.DeliveryStatus)
	notifier.AssertExpectations(t)

	_, err = svc.RequestDelivery(ctx, &entities.Doctor{Username: "intruder"}, "p-9", "http://h")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeForbidden))

	require.NoError(t, store.Patients().Update(ctx, &entities.Patient{ID: "p-9", Name: "Tunde", Phone: "1", DoctorUsername: "drade"}))
	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("offline"))
	_, err = svc.RequestDelivery(ctx, doctor, "p-9", "http://h")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeExternal))

	stored, err := store.Patients().GetByID(ctx, "p-9")
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryStatusNone, stored.DeliveryStatus, "status unchanged when sending fails")
}
