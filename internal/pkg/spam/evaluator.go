package spam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/formgate/formgate/internal/pkg/captcha"
	"github.com/formgate/formgate/internal/pkg/ratelimit"

	"github.com/gofiber/fiber/v2/log"
)

// Process-wide fallbacks applied when a form does not configure its own
// budgets.
const (
	DefaultRateLimitPerIP   = 10
	DefaultRateLimitPerForm = 50
	DefaultWindowMinutes    = 60
)

// Kind identifies which spam layer blocked a submission, so callers can map
// it to the right HTTP status (429 for rate limits, 400 otherwise).
type Kind string

const (
	KindHoneypot  Kind = "honeypot"
	KindRateLimit Kind = "rate_limit"
	KindCaptcha   Kind = "captcha"
)

// Config assembles one form's spam settings with process-wide captcha config.
type Config struct {
	HoneypotField    string
	RateLimitPerIP   int
	RateLimitPerForm int
	WindowMinutes    int
	EnableRecaptcha  bool
	RecaptchaSecret  string
}

// Result is the evaluation outcome. When invalid, Kind and Reason identify
// the blocking layer. RateLimit carries the decision backing the X-RateLimit
// response headers (the failing one when blocked, the tightest one otherwise).
type Result struct {
	Valid     bool
	Kind      Kind
	Reason    string
	RateLimit *ratelimit.Decision
}

// Evaluator runs the layered spam checks in a fixed order, cheapest first,
// short-circuiting on the first failure.
type Evaluator struct {
	limiter  *ratelimit.Limiter
	verifier *captcha.Verifier
}

// NewEvaluator creates an evaluator over the given limiter and captcha verifier.
func NewEvaluator(limiter *ratelimit.Limiter, verifier *captcha.Verifier) *Evaluator {
	return &Evaluator{limiter: limiter, verifier: verifier}
}

// Evaluate runs honeypot, per-IP, per-form and combined ip+form rate limits,
// then captcha verification. Order matters: checks that need no external call
// run first.
func (e *Evaluator) Evaluate(ctx context.Context, payload map[string]interface{}, ip, formID string, cfg Config) Result {
	if reason := checkHoneypot(payload, cfg.HoneypotField); reason != "" {
		return Result{Kind: KindHoneypot, Reason: reason}
	}

	perIP := cfg.RateLimitPerIP
	if perIP <= 0 {
		perIP = DefaultRateLimitPerIP
	}
	perForm := cfg.RateLimitPerForm
	if perForm <= 0 {
		perForm = DefaultRateLimitPerForm
	}
	windowMinutes := cfg.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}
	window := time.Duration(windowMinutes) * time.Minute

	d := e.limiter.CheckAndConsume(ctx, "ip:"+ip, perIP, window)
	if !d.Allowed {
		return Result{
			Kind:      KindRateLimit,
			Reason:    "rate limit exceeded for this IP address",
			RateLimit: &d,
		}
	}

	d = e.limiter.CheckAndConsume(ctx, "form:"+formID, perForm, window)
	if !d.Allowed {
		return Result{
			Kind:      KindRateLimit,
			Reason:    "rate limit exceeded for this form",
			RateLimit: &d,
		}
	}

	// The combined key is intentionally the most restrictive layer: it stops
	// one client hammering one form before the wider budgets are exhausted.
	combined := perIP
	if perForm < combined {
		combined = perForm
	}
	d = e.limiter.CheckAndConsume(ctx, "ip_form:"+ip+":"+formID, combined, window)
	if !d.Allowed {
		return Result{
			Kind:      KindRateLimit,
			Reason:    "rate limit exceeded for this IP address on this form",
			RateLimit: &d,
		}
	}
	tightest := d

	if cfg.EnableRecaptcha && cfg.RecaptchaSecret != "" {
		token := captchaToken(payload)
		if token == "" {
			return Result{Kind: KindCaptcha, Reason: "captcha token is missing", RateLimit: &tightest}
		}
		if err := e.verifier.Verify(ctx, cfg.RecaptchaSecret, token, ip); err != nil {
			log.Warnf("[Spam] captcha verification failed for form %s: %v", formID, err)
			return Result{Kind: KindCaptcha, Reason: "captcha verification failed", RateLimit: &tightest}
		}
	}

	return Result{Valid: true, RateLimit: &tightest}
}

// checkHoneypot returns a reason when the honeypot field carries a non-blank
// value. Absent, nil and whitespace-only values pass.
func checkHoneypot(payload map[string]interface{}, field string) string {
	if field == "" {
		return ""
	}
	value, ok := payload[field]
	if !ok || value == nil {
		return ""
	}
	if s, isString := value.(string); isString {
		if strings.TrimSpace(s) == "" {
			return ""
		}
	}
	return fmt.Sprintf("honeypot field %q was filled", field)
}

// captchaToken accepts either token key for frontend flexibility.
func captchaToken(payload map[string]interface{}) string {
	for _, key := range []string{"recaptcha_token", "g-recaptcha-response"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
