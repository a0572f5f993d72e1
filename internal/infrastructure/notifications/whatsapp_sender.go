package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/zatekoja/clinicportal/internal/domain/providers"
)

const defaultGraphURL = "https://graph.facebook.com/v18.0"

// WhatsAppSender delivers prescriptions and delivery links as WhatsApp text
// messages through the Cloud API. Calls go through a circuit breaker that
// opens after consecutive failures so a Graph API outage fails fast.
type WhatsAppSender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker
}

var _ providers.Notifier = (*WhatsAppSender)(nil)

// WhatsAppOption customizes a WhatsAppSender.
type WhatsAppOption func(*WhatsAppSender)

// WithBaseURL points the sender at a different Graph API host.
func WithBaseURL(url string) WhatsAppOption {
	return func(s *WhatsAppSender) { s.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) WhatsAppOption {
	return func(s *WhatsAppSender) { s.httpClient = c }
}

// NewWhatsAppSender creates a sender; both credentials are required.
func NewWhatsAppSender(accessToken, phoneNumberID string, opts ...WhatsAppOption) (*WhatsAppSender, error) {
	if accessToken == "" || phoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}

	s := &WhatsAppSender{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultGraphURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return s, nil
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send implements Notifier. The subject, when present, becomes a bold first line.
func (s *WhatsAppSender) Send(ctx context.Context, msg providers.Message) error {
	to := normalizePhone(msg.To)
	if to == "" {
		return fmt.Errorf("whatsapp recipient %q has no digits", msg.To)
	}

	body := msg.Body
	if msg.Subject != "" {
		body = "*" + msg.Subject + "*\n\n" + body
	}

	id, err := s.breaker.Execute(func() (interface{}, error) {
		return s.sendText(ctx, to, body)
	})
	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}

	log.Info().Str("to", to).Str("message_id", id.(string)).Msg("whatsapp message sent")
	return nil
}

func (s *WhatsAppSender) sendText(ctx context.Context, to, body string) (string, error) {
	message := textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	message.Text.PreviewURL = true
	message.Text.Body = body

	payload, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return "", fmt.Errorf("no message ID in response")
	}
	return parsed.Messages[0].ID, nil
}
