package entities

import "time"

// MedicationOrder is the structured form of a prescribed plan.
type MedicationOrder struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Days       string `json:"days"`
}

// DiagnosisSession is one consultation: what was found and what was prescribed.
type DiagnosisSession struct {
	ID         string          `json:"id" db:"id"`
	PatientID  string          `json:"patient_id" db:"patient_id"`
	Diagnosis  string          `json:"diagnosis" db:"diagnosis"`
	Plan       string          `json:"plan" db:"plan"`
	Medication MedicationOrder `json:"medication" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
