package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/formgate/formgate/app/repository"
	"github.com/formgate/formgate/internal/pkg/cache"
	"github.com/formgate/formgate/internal/pkg/captcha"
	"github.com/formgate/formgate/internal/pkg/jobqueue"
	"github.com/formgate/formgate/internal/pkg/ratelimit"
	"github.com/formgate/formgate/internal/pkg/spam"
	"github.com/formgate/formgate/internal/pkg/submission"
)

var submissionService *submission.Service

// InitializeSubmitController wires the intake service with its repositories,
// the Redis-backed rate limiter and the job queue.
func InitializeSubmitController() {
	factory := repository.GetGlobalFactory()
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisCounterStore(cache.GetClient()))
	evaluator := spam.NewEvaluator(limiter, captcha.NewVerifier())
	submissionService = submission.NewService(
		factory.GetFormRepository(),
		factory.GetSubmissionRepository(),
		evaluator,
		jobqueue.GetManager().GetQueue(),
	)
}

// SubmitRequest is the public intake body.
type SubmitRequest struct {
	FormData map[string]interface{} `json:"formData"`
	Name     string                 `json:"name"`
	Email    string                 `json:"email"`
	Honeypot string                 `json:"honeypot"`
}

// HandleSubmit processes POST /api/forms/:endpointSlug/submit.
func HandleSubmit(c *fiber.Ctx) error {
	slug := c.Params("endpointSlug")

	var body SubmitRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if body.FormData == nil {
		body.FormData = map[string]interface{}{}
	}

	// Keys outside the documented schema feed the spam evaluation; naive bots
	// post the honeypot field at the top level of the body.
	var raw map[string]interface{}
	extra := map[string]interface{}{}
	if err := json.Unmarshal(c.Body(), &raw); err == nil {
		for k, v := range raw {
			switch k {
			case "formData", "name", "email", "honeypot":
			default:
				extra[k] = v
			}
		}
	}

	req := submission.Request{
		FormData:  body.FormData,
		Extra:     extra,
		Name:      body.Name,
		Email:     body.Email,
		Honeypot:  body.Honeypot,
		IP:        GetClientIP(c),
		UserAgent: c.Get("User-Agent"),
	}

	result, err := submissionService.Submit(c.UserContext(), slug, req)
	if err != nil {
		return writeSubmitError(c, err)
	}

	setRateLimitHeaders(c, result.RateLimit)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          result.Submission.ID,
		"status":      result.Submission.Status,
		"submittedAt": result.Submission.CreatedAt,
	})
}

func writeSubmitError(c *fiber.Ctx, err error) error {
	var notFound *submission.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Form not found"})
	}

	var inactive *submission.InactiveError
	if errors.As(err, &inactive) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Form is not accepting submissions"})
	}

	var validation *submission.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_failed",
			"field":   validation.Field,
			"message": validation.Message,
		})
	}

	var duplicate *submission.DuplicateError
	if errors.As(err, &duplicate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duplicate_submission", "message": duplicate.Error()})
	}

	var spamErr *submission.SpamError
	if errors.As(err, &spamErr) {
		if spamErr.Kind == spam.KindRateLimit {
			setRateLimitHeaders(c, spamErr.RateLimit)
			if spamErr.RateLimit != nil {
				retryAfter := int(spamErr.RateLimit.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Set("Retry-After", strconv.Itoa(retryAfter))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": spamErr.Reason})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "spam_rejected", "message": spamErr.Reason})
	}

	log.Errorf("[Submit] intake failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to process submission"})
}

func setRateLimitHeaders(c *fiber.Ctx, d *ratelimit.Decision) {
	if d == nil {
		return
	}
	c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}
