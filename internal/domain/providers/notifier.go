package providers

import "context"

// Message is an outbound notification to a patient.
type Message struct {
	To      string // email address or phone number
	Subject string
	Body    string
}

// Notifier delivers messages to patients.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
