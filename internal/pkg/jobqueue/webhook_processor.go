package jobqueue

import (
	"context"
	"fmt"

	"github.com/formgate/formgate/internal/pkg/webhook"
)

// processWebhookDispatchJob delivers the submission.created envelope to the
// form's configured webhook URL, signing it when a secret is set. Delivery
// errors and non-2xx responses surface to the queue, which owns retries.
func (q *Queue) processWebhookDispatchJob(ctx context.Context, job *Job) error {
	payload, err := WebhookJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid webhook payload: %w", err)
	}
	if payload.URL == "" {
		return fmt.Errorf("webhook job %s has no target URL", job.ID)
	}

	envelope := webhook.NewEnvelope(webhook.EventSubmissionCreated, map[string]interface{}{
		"submission": payload.Submission,
		"form": map[string]interface{}{
			"id":            payload.Form.ID,
			"name":          payload.Form.Name,
			"endpoint_slug": payload.Form.EndpointSlug,
		},
	})

	return q.webhookClient.Dispatch(ctx, payload.URL, envelope, payload.Secret)
}
