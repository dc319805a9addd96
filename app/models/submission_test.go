package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidSubmissionStatus(t *testing.T) {
	for _, s := range []string{SUBMISSION_STATUS_NEW, SUBMISSION_STATUS_READ, SUBMISSION_STATUS_RESPONDED, SUBMISSION_STATUS_SPAM} {
		assert.True(t, IsValidSubmissionStatus(s), s)
	}
	assert.False(t, IsValidSubmissionStatus("archived"))
	assert.False(t, IsValidSubmissionStatus(""))
}

func TestSubmissionPayloadRoundTrip(t *testing.T) {
	payload := SubmissionPayload{
		"email":   "a@b.co",
		"message": "hello",
		"age":     float64(30),
	}

	value, err := payload.Value()
	require.NoError(t, err)

	var decoded SubmissionPayload
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, payload, decoded)
}
