package submission

import (
	"fmt"

	"github.com/formgate/formgate/internal/pkg/ratelimit"
	"github.com/formgate/formgate/internal/pkg/spam"
)

// NotFoundError means the endpoint slug resolved to no form.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("form %q not found", e.Slug)
}

// InactiveError means the form exists but is disabled. Submissions to
// inactive forms are rejected, not silently dropped.
type InactiveError struct {
	Slug string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("form %q is not accepting submissions", e.Slug)
}

// ValidationError means the payload failed the form's field schema. Field
// carries the offending field's label (not its id) for user-facing clarity.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SpamError means a spam layer blocked the submission. Kind distinguishes
// rate limiting (429) from honeypot/captcha (400).
type SpamError struct {
	Kind      spam.Kind
	Reason    string
	RateLimit *ratelimit.Decision
}

func (e *SpamError) Error() string {
	return e.Reason
}

// DuplicateError means the multiple-submission policy rejected the request.
type DuplicateError struct{}

func (e *DuplicateError) Error() string {
	return "a submission from this address was already received recently"
}
