// Package feedback validates and forwards visitor feedback to a third-party
// record store.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// Categories accepted by the feedback form.
const (
	CategoryCorrection  = "correction"
	CategorySuggestion  = "suggestion"
	CategoryNewLocation = "new_location"
	CategoryOther       = "other"
)

// Record is one feedback submission. Validation runs client-side before
// anything goes over the wire.
type Record struct {
	Category string `json:"category" validate:"required,oneof=correction suggestion new_location other"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Comment  string `json:"comment" validate:"required"`
}

// ValidationError reports which fields failed validation. Callers keep the
// form populated so the visitor can correct and resubmit.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "feedback: invalid fields: " + strings.Join(e.Fields, ", ")
}

// Client submits feedback records to the record-store forwarding endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	validate   *validator.Validate
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token for the forwarding endpoint.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a feedback client for the given endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the record without submitting it.
func (c *Client) Validate(rec Record) error {
	err := c.validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if eris.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return &ValidationError{Fields: fields}
	}
	return eris.Wrap(err, "feedback: validate")
}

// submitResponse is the forwarding endpoint's reply shape.
type submitResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Submit validates and forwards the record, returning the created record id.
// When the endpoint supplies an error message it is surfaced verbatim so the
// form can show it; otherwise callers fall back to a generic message.
func (c *Client) Submit(ctx context.Context, rec Record) (string, error) {
	if err := c.Validate(rec); err != nil {
		return "", err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", eris.Wrap(err, "feedback: encode record")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "feedback: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "feedback: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "feedback: read response")
	}

	var parsed submitResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != "" {
			return "", eris.Errorf("feedback: %s", parsed.Error)
		}
		return "", eris.Errorf("feedback: submission failed with status %d", resp.StatusCode)
	}
	return parsed.ID, nil
}
