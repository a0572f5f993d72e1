package entities

import (
	"time"

	"github.com/google/uuid"
)

// PrescriptionEventType identifies what happened to a prescription.
type PrescriptionEventType string

const (
	PrescriptionEventCreated          PrescriptionEventType = "prescription.created"
	PrescriptionEventDeliveryResponse PrescriptionEventType = "delivery.responded"
)

// PrescriptionEvent is published on the event bus after a prescription or a
// delivery answer is recorded.
type PrescriptionEvent struct {
	ID        string                 `json:"id"`
	Type      PrescriptionEventType  `json:"type"`
	PatientID string                 `json:"patient_id"`
	SessionID string                 `json:"session_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewPrescriptionEvent creates an event stamped with the current time.
func NewPrescriptionEvent(eventType PrescriptionEventType, patientID, sessionID string, data map[string]interface{}) *PrescriptionEvent {
	return &PrescriptionEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		PatientID: patientID,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      data,
	}
}
