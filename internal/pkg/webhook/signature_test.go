package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		secret  string
	}{
		{"simple", `{"event":"submission.created"}`, "s3cret"},
		{"empty payload", ``, "s3cret"},
		{"unicode", `{"msg":"grüße"}`, "ein-längeres-geheimnis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Sign([]byte(tt.payload), tt.secret)
			assert.True(t, VerifySignature([]byte(tt.payload), sig, tt.secret))
		})
	}
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"event":"submission.created","data":{"id":1}}`)
	sig := Sign(payload, "secret")

	tampered := make([]byte, len(payload))
	copy(tampered, payload)
	tampered[len(tampered)-2] ^= 0x01

	assert.False(t, VerifySignature(tampered, sig, "secret"))
}

func TestVerifySignature_TamperedSignature(t *testing.T) {
	payload := []byte(`{"event":"submission.created"}`)
	sig := Sign(payload, "secret")

	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	assert.False(t, VerifySignature(payload, string(flipped), "secret"))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"event":"submission.created"}`)
	sig := Sign(payload, "secret")
	assert.False(t, VerifySignature(payload, sig, "other-secret"))
}

func TestVerifySignature_Rejects(t *testing.T) {
	payload := []byte(`{}`)
	sig := Sign(payload, "secret")

	assert.False(t, VerifySignature(payload, "", "secret"))
	assert.False(t, VerifySignature(payload, sig, ""))
	assert.False(t, VerifySignature(payload, "not-hex!!", "secret"))
}

func TestVerifySignature_CaseInsensitiveHex(t *testing.T) {
	payload := []byte(`{"id":42}`)
	sig := Sign(payload, "secret")

	upper := make([]byte, len(sig))
	for i := 0; i < len(sig); i++ {
		c := sig[i]
		if c >= 'a' && c <= 'f' {
			c = c - 'a' + 'A'
		}
		upper[i] = c
	}

	require.True(t, VerifySignature(payload, string(upper), "secret"))
}
