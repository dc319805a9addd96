package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_SignedDelivery(t *testing.T) {
	var gotBody []byte
	var gotSig, gotUA, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	envelope := NewEnvelope(EventSubmissionCreated, map[string]interface{}{"id": 42})
	err := NewClient().Dispatch(context.Background(), srv.URL, envelope, "hook-secret")
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "FormGate/1.0", gotUA)

	// The receiver can verify the body with the shared secret.
	require.NotEmpty(t, gotSig)
	assert.True(t, VerifySignature(gotBody, gotSig, "hook-secret"))

	var decoded Envelope
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventSubmissionCreated, decoded.Event)
	assert.NotEmpty(t, decoded.Timestamp)
}

func TestDispatch_NoSecretNoSignature(t *testing.T) {
	var gotSig string
	var hasHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		_, hasHeader = r.Header[SignatureHeader]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	envelope := NewEnvelope(EventSubmissionCreated, nil)
	err := NewClient().Dispatch(context.Background(), srv.URL, envelope, "")
	require.NoError(t, err)
	assert.False(t, hasHeader)
	assert.Empty(t, gotSig)
}

func TestDispatch_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient().Dispatch(context.Background(), srv.URL, NewEnvelope(EventSubmissionCreated, nil), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDispatch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := NewClient().Dispatch(context.Background(), srv.URL, NewEnvelope(EventSubmissionCreated, nil), "")
	assert.Error(t, err)
}
