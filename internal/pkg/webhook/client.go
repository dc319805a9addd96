package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// EventSubmissionCreated is emitted once per accepted submission.
const EventSubmissionCreated = "submission.created"

// dispatchTimeout bounds one delivery attempt; retries are the job queue's
// concern, not the client's.
const dispatchTimeout = 30 * time.Second

// Envelope is the JSON body delivered to user-configured webhook URLs.
type Envelope struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEnvelope wraps event data with the event name and the current time.
func NewEnvelope(event string, data interface{}) Envelope {
	return Envelope{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// Client delivers webhook payloads with a bounded timeout.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a webhook delivery client.
func NewClient() *Client {
	return &Client{
		http:      &http.Client{Timeout: dispatchTimeout},
		userAgent: "FormGate/1.0",
	}
}

// Dispatch POSTs the envelope to url. When secret is non-empty the body is
// signed and the signature attached. Any non-2xx response is a failure so the
// job queue can retry.
func (c *Client) Dispatch(ctx context.Context, url string, envelope Envelope, secret string) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, secret))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook delivery to %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
