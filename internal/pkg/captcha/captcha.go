package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/formgate/formgate/internal/pkg/env"
)

// DefaultVerifyURL is the Google reCAPTCHA verification endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// verifyTimeout bounds the outbound verification call so a slow provider
// cannot block submission intake.
const verifyTimeout = 10 * time.Second

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks captcha tokens against the external verification service.
type Verifier struct {
	verifyURL string
	client    *http.Client
}

// NewVerifier creates a verifier against the default provider endpoint. The
// endpoint can be overridden via CAPTCHA_VERIFY_URL (used in tests).
func NewVerifier() *Verifier {
	return &Verifier{
		verifyURL: env.GetEnv("CAPTCHA_VERIFY_URL", DefaultVerifyURL),
		client:    &http.Client{Timeout: verifyTimeout},
	}
}

// NewVerifierWithURL creates a verifier against a specific endpoint.
func NewVerifierWithURL(verifyURL string) *Verifier {
	return &Verifier{
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: verifyTimeout},
	}
}

// Verify posts the token to the verification service. Transport errors and
// non-success verdicts both return an error: the captcha check fails closed.
func (v *Verifier) Verify(ctx context.Context, secret, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("captcha token is empty")
	}
	if secret == "" {
		return fmt.Errorf("captcha secret is not set")
	}

	formData := url.Values{
		"secret":   {secret},
		"response": {token},
	}
	if remoteIP != "" {
		formData.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to captcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode captcha API response: %w", err)
	}

	if !response.Success {
		errorMsg := "captcha validation failed"
		if len(response.ErrorCodes) > 0 {
			errorMsg = errorMsg + ": " + strings.Join(response.ErrorCodes, ", ")
		}
		return fmt.Errorf("%s", errorMsg)
	}

	return nil
}
