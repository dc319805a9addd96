package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Success(t *testing.T) {
	var gotSecret, gotToken, gotRemoteIP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.FormValue("secret")
		gotToken = r.FormValue("response")
		gotRemoteIP = r.FormValue("remoteip")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := NewVerifierWithURL(srv.URL)
	err := v.Verify(context.Background(), "test-secret", "test-token", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "test-secret", gotSecret)
	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, "1.2.3.4", gotRemoteIP)
}

func TestVerify_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewVerifierWithURL(srv.URL)
	err := v.Verify(context.Background(), "test-secret", "bad-token", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerify_EmptyToken(t *testing.T) {
	v := NewVerifierWithURL("http://unused.invalid")
	err := v.Verify(context.Background(), "test-secret", "", "")
	assert.Error(t, err)
}

func TestVerify_TransportErrorFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	v := NewVerifierWithURL(srv.URL)
	err := v.Verify(context.Background(), "test-secret", "token", "")
	assert.Error(t, err)
}
