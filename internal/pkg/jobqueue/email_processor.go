package jobqueue

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
)

// processNotificationEmailJob renders the submission into an HTML field table
// (with a plain-text fallback) and sends it to the form owner's configured
// notification address.
func (q *Queue) processNotificationEmailJob(_ context.Context, job *Job) error {
	payload, err := EmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid notification email payload: %w", err)
	}
	if payload.Recipient == "" {
		return fmt.Errorf("notification email job %s has no recipient", job.ID)
	}

	subject := fmt.Sprintf("New submission for %s", payload.Form.Name)
	htmlBody, textBody := renderSubmissionEmail(payload)

	return q.mailer.Send(payload.Recipient, subject, htmlBody, textBody)
}

// processAutoReplyEmailJob sends a short acknowledgment to the submitter.
func (q *Queue) processAutoReplyEmailJob(_ context.Context, job *Job) error {
	payload, err := EmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid auto-reply payload: %w", err)
	}
	if payload.Recipient == "" {
		return fmt.Errorf("auto-reply job %s has no recipient", job.ID)
	}

	subject := fmt.Sprintf("Thanks for your submission to %s", payload.Form.Name)
	htmlBody, textBody := renderAutoReplyEmail(payload)

	return q.mailer.Send(payload.Recipient, subject, htmlBody, textBody)
}

// renderSubmissionEmail maps field ids to their configured labels (falling
// back to a capitalized field id) and renders the values as an HTML table
// plus a plain-text fallback.
func renderSubmissionEmail(p *EmailJobPayload) (string, string) {
	var htmlRows strings.Builder
	var textLines strings.Builder

	for _, id := range fieldOrder(p) {
		value, ok := p.Submission.Payload[id]
		if !ok {
			continue
		}
		label := p.Form.FieldLabels[id]
		if label == "" {
			label = capitalizeFieldID(id)
		}
		valueStr := fmt.Sprintf("%v", value)

		htmlRows.WriteString(fmt.Sprintf(
			"<tr><td style=\"padding:4px 12px 4px 0;font-weight:bold\">%s</td><td style=\"padding:4px 0\">%s</td></tr>\n",
			html.EscapeString(label), html.EscapeString(valueStr)))
		textLines.WriteString(fmt.Sprintf("%s: %s\n", label, valueStr))
	}

	submitter := p.Submission.Name
	if p.Submission.Email != "" {
		if submitter != "" {
			submitter += " "
		}
		submitter += "<" + p.Submission.Email + ">"
	}

	htmlBody := fmt.Sprintf(
		"<h2>New submission for %s</h2>\n<table>\n%s</table>\n<p>Submission #%d, received %s</p>\n",
		html.EscapeString(p.Form.Name), htmlRows.String(),
		p.Submission.ID, p.Submission.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if submitter != "" {
		htmlBody += fmt.Sprintf("<p>From: %s</p>\n", html.EscapeString(submitter))
	}

	textBody := fmt.Sprintf("New submission for %s\n\n%s\nSubmission #%d, received %s\n",
		p.Form.Name, textLines.String(),
		p.Submission.ID, p.Submission.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if submitter != "" {
		textBody += fmt.Sprintf("From: %s\n", submitter)
	}

	return htmlBody, textBody
}

// renderAutoReplyEmail builds the short acknowledgment sent to the submitter.
func renderAutoReplyEmail(p *EmailJobPayload) (string, string) {
	received := p.Submission.CreatedAt.Format("2006-01-02 15:04:05 MST")

	htmlBody := fmt.Sprintf(
		"<p>Thanks for your submission to <strong>%s</strong>.</p>\n", html.EscapeString(p.Form.Name))
	if p.Form.Description != "" {
		htmlBody += fmt.Sprintf("<p>%s</p>\n", html.EscapeString(p.Form.Description))
	}
	htmlBody += fmt.Sprintf("<p>Your submission (#%d) was received on %s.</p>\n", p.Submission.ID, received)

	textBody := fmt.Sprintf("Thanks for your submission to %s.\n", p.Form.Name)
	if p.Form.Description != "" {
		textBody += p.Form.Description + "\n"
	}
	textBody += fmt.Sprintf("Your submission (#%d) was received on %s.\n", p.Submission.ID, received)

	return htmlBody, textBody
}

// fieldOrder renders fields in their schema order, then any extra payload
// keys alphabetically.
func fieldOrder(p *EmailJobPayload) []string {
	seen := make(map[string]struct{}, len(p.Form.FieldOrder))
	order := make([]string, 0, len(p.Submission.Payload))
	for _, id := range p.Form.FieldOrder {
		if _, ok := p.Submission.Payload[id]; ok {
			order = append(order, id)
			seen[id] = struct{}{}
		}
	}

	extras := make([]string, 0)
	for id := range p.Submission.Payload {
		if _, ok := seen[id]; !ok {
			extras = append(extras, id)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

// capitalizeFieldID turns a raw field id like "full_name" into "Full name".
func capitalizeFieldID(id string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(id)
	if cleaned == "" {
		return cleaned
	}
	return strings.ToUpper(cleaned[:1]) + cleaned[1:]
}
