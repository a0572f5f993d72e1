package entities

import "time"

// PrescriptionDocument is the flattened session stored in the search index.
type PrescriptionDocument struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name"`
	DoctorUsername string    `json:"doctor_username"`
	Diagnosis      string    `json:"diagnosis"`
	Plan           string    `json:"plan"`
	Medication     string    `json:"medication"`
	Dosage         string    `json:"dosage"`
	Days           string    `json:"days"`
	CreatedAt      time.Time `json:"created_at"`
}
