package entities

import (
	"strings"
	"time"
)

// Doctor is a portal user who owns patients and writes prescriptions.
type Doctor struct {
	Username       string    `json:"username" db:"username"`
	Name           string    `json:"name" db:"name"`
	Qualifications string    `json:"qualifications" db:"qualifications"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// DisplayName is "Dr. <name>" with the qualifications in parentheses when known.
func (d *Doctor) DisplayName() string {
	name := "Dr. " + strings.TrimSpace(d.Name)
	if q := strings.TrimSpace(d.Qualifications); q != "" {
		name += " (" + q + ")"
	}
	return name
}
