package entities

import "time"

// DeliveryStatus tracks the patient's answer to a medicine delivery offer.
type DeliveryStatus string

const (
	DeliveryStatusNone     DeliveryStatus = ""
	DeliveryStatusPending  DeliveryStatus = "pending"
	DeliveryStatusAccepted DeliveryStatus = "accepted"
	DeliveryStatusDeclined DeliveryStatus = "declined"
)

// Patient is a person under the care of exactly one doctor.
type Patient struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Email          string         `json:"email,omitempty" db:"email"`
	Phone          string         `json:"phone,omitempty" db:"phone"`
	Age            *int           `json:"age,omitempty" db:"age"`
	Gender         string         `json:"gender,omitempty" db:"gender"`
	Address        string         `json:"address,omitempty" db:"address"`
	Notes          string         `json:"notes,omitempty" db:"notes"`
	DoctorUsername string         `json:"doctor_username" db:"doctor_username"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" db:"delivery_status"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Contact returns the address messages are sent to. Email is preferred
// unless phoneFirst is set; either falls back to the other.
func (p *Patient) Contact(phoneFirst bool) string {
	if phoneFirst && p.Phone != "" {
		return p.Phone
	}
	if p.Email != "" {
		return p.Email
	}
	return p.Phone
}
