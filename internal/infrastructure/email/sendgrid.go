package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/neurodex/neurodex/internal/core/domain"
)

const (
	sendgridURL          = "https://api.sendgrid.com/v3/mail/send"
	confirmationTemplate = "d-335db9b46c12429eae2b7a662752ea07"
	fromAddress          = "no-reply@neurodex.app"
	fromName             = "Neurodex"
)

// SendgridSender delivers confirmation emails through the SendGrid v3 mail
// API using a dynamic template.
type SendgridSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewSendgridSender(apiKey, baseURL string, logger zerolog.Logger) *SendgridSender {
	return &SendgridSender{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type sendRequest struct {
	From             address           `json:"from"`
	TemplateID       string            `json:"template_id"`
	Personalizations []personalization `json:"personalizations"`
}

type personalization struct {
	To           []address      `json:"to"`
	TemplateData map[string]any `json:"dynamic_template_data"`
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendConfirmation mails the confirmation link for the given token. A 4xx
// from SendGrid means the request itself is unacceptable and is reported as a
// validation failure; transport errors and 5xx responses are transient.
func (s *SendgridSender) SendConfirmation(ctx context.Context, confirmationID, email, name string) error {
	payload := sendRequest{
		From:       address{Email: fromAddress, Name: fromName},
		TemplateID: confirmationTemplate,
		Personalizations: []personalization{{
			To: []address{{Email: email, Name: name}},
			TemplateData: map[string]any{
				"name":             name,
				"confirmationLink": fmt.Sprintf("%s/confirm-email/%s", s.baseURL, confirmationID),
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		s.logger.Info().Str("email", email).Msg("confirmation email sent")
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: sendgrid responded %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, detail)
	}
	return fmt.Errorf("%w: sendgrid rejected message (%d): %s", domain.ErrValidation, resp.StatusCode, detail)
}

// LogSender is the no-key fallback for local development. It logs the
// confirmation link instead of delivering mail.
type LogSender struct {
	baseURL string
	logger  zerolog.Logger
}

func NewLogSender(baseURL string, logger zerolog.Logger) *LogSender {
	return &LogSender{baseURL: baseURL, logger: logger}
}

func (s *LogSender) SendConfirmation(_ context.Context, confirmationID, email, _ string) error {
	s.logger.Info().
		Str("email", email).
		Str("link", fmt.Sprintf("%s/confirm-email/%s", s.baseURL, confirmationID)).
		Msg("confirmation email suppressed (no sendgrid key)")
	return nil
}
