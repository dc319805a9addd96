package spam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formgate/formgate/internal/pkg/captcha"
	"github.com/formgate/formgate/internal/pkg/ratelimit"
)

func newTestEvaluator() *Evaluator {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounterStore())
	return NewEvaluator(limiter, captcha.NewVerifierWithURL("http://unused.invalid"))
}

func TestEvaluate_Honeypot(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		valid   bool
	}{
		{"field absent", map[string]interface{}{"message": "hi"}, true},
		{"field nil", map[string]interface{}{"website": nil}, true},
		{"field empty", map[string]interface{}{"website": ""}, true},
		{"field whitespace", map[string]interface{}{"website": "   \t"}, true},
		{"field filled", map[string]interface{}{"website": "http://spam.example"}, false},
		{"field non-string", map[string]interface{}{"website": 42}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator()
			res := e.Evaluate(context.Background(), tt.payload, "1.2.3.4", "7", Config{HoneypotField: "website"})
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				assert.Equal(t, KindHoneypot, res.Kind)
				assert.Contains(t, res.Reason, "website")
			}
		})
	}
}

func TestEvaluate_HoneypotDisabledWhenUnset(t *testing.T) {
	e := newTestEvaluator()
	res := e.Evaluate(context.Background(), map[string]interface{}{"website": "filled"}, "1.2.3.4", "7", Config{})
	assert.True(t, res.Valid)
}

func TestEvaluate_PerIPRateLimit(t *testing.T) {
	e := newTestEvaluator()
	cfg := Config{RateLimitPerIP: 2, RateLimitPerForm: 50, WindowMinutes: 1}
	payload := map[string]interface{}{"message": "hi"}

	res := e.Evaluate(context.Background(), payload, "1.2.3.4", "7", cfg)
	require.True(t, res.Valid)
	res = e.Evaluate(context.Background(), payload, "1.2.3.4", "7", cfg)
	require.True(t, res.Valid)

	res = e.Evaluate(context.Background(), payload, "1.2.3.4", "7", cfg)
	require.False(t, res.Valid)
	assert.Equal(t, KindRateLimit, res.Kind)
	assert.Contains(t, res.Reason, "rate limit")
	require.NotNil(t, res.RateLimit)
	assert.Equal(t, 0, res.RateLimit.Remaining)

	// A different IP has an independent budget.
	res = e.Evaluate(context.Background(), payload, "5.6.7.8", "7", cfg)
	assert.True(t, res.Valid)
}

func TestEvaluate_CombinedKeyIsMostRestrictive(t *testing.T) {
	// per-IP 10 and per-form 50, but the combined ip_form budget is
	// min(10, 50) = 10: the 11th submission from one IP to one form must be
	// blocked even though the wider form budget still has headroom.
	e := newTestEvaluator()
	cfg := Config{RateLimitPerIP: 10, RateLimitPerForm: 50, WindowMinutes: 60}
	payload := map[string]interface{}{"message": "hi"}

	for i := 0; i < 10; i++ {
		res := e.Evaluate(context.Background(), payload, "9.9.9.9", "7", cfg)
		require.True(t, res.Valid, "submission %d should pass", i+1)
	}

	res := e.Evaluate(context.Background(), payload, "9.9.9.9", "7", cfg)
	require.False(t, res.Valid)
	assert.Equal(t, KindRateLimit, res.Kind)
}

func TestEvaluate_CaptchaMissingToken(t *testing.T) {
	e := newTestEvaluator()
	cfg := Config{EnableRecaptcha: true, RecaptchaSecret: "secret"}

	res := e.Evaluate(context.Background(), map[string]interface{}{"message": "hi"}, "1.2.3.4", "7", cfg)
	require.False(t, res.Valid)
	assert.Equal(t, KindCaptcha, res.Kind)
	assert.Contains(t, res.Reason, "missing")
}

func TestEvaluate_CaptchaVerification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("response") == "good-token" {
			w.Write([]byte(`{"success": true}`))
			return
		}
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer srv.Close()

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounterStore())
	e := NewEvaluator(limiter, captcha.NewVerifierWithURL(srv.URL))
	cfg := Config{EnableRecaptcha: true, RecaptchaSecret: "secret"}

	res := e.Evaluate(context.Background(), map[string]interface{}{"recaptcha_token": "good-token"}, "1.2.3.4", "7", cfg)
	assert.True(t, res.Valid)

	// The alternate token key is accepted too.
	res = e.Evaluate(context.Background(), map[string]interface{}{"g-recaptcha-response": "good-token"}, "1.2.3.4", "7", cfg)
	assert.True(t, res.Valid)

	res = e.Evaluate(context.Background(), map[string]interface{}{"recaptcha_token": "bad-token"}, "1.2.3.4", "7", cfg)
	require.False(t, res.Valid)
	assert.Equal(t, KindCaptcha, res.Kind)
}

func TestEvaluate_CaptchaFailsClosedOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounterStore())
	e := NewEvaluator(limiter, captcha.NewVerifierWithURL(srv.URL))
	cfg := Config{EnableRecaptcha: true, RecaptchaSecret: "secret"}

	res := e.Evaluate(context.Background(), map[string]interface{}{"recaptcha_token": "token"}, "1.2.3.4", "7", cfg)
	require.False(t, res.Valid)
	assert.Equal(t, KindCaptcha, res.Kind)
}

func TestEvaluate_HoneypotRunsBeforeRateLimit(t *testing.T) {
	// A honeypot hit must not consume rate-limit budget.
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounterStore())
	e := NewEvaluator(limiter, captcha.NewVerifierWithURL("http://unused.invalid"))
	cfg := Config{HoneypotField: "website", RateLimitPerIP: 1, WindowMinutes: 1}

	res := e.Evaluate(context.Background(), map[string]interface{}{"website": "spam"}, "1.2.3.4", "7", cfg)
	require.False(t, res.Valid)
	assert.Equal(t, KindHoneypot, res.Kind)

	// Budget of one is still available.
	res = e.Evaluate(context.Background(), map[string]interface{}{}, "1.2.3.4", "7", cfg)
	assert.True(t, res.Valid)
}
