package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciuSVN/webcompat.com/internal/auth"
)

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := auth.NewTokenService("short")
	assert.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	svc, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	signed, err := svc.Sign("session-token-123")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	token, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "session-token-123", token)
}

func TestVerify_RejectsTamperedValue(t *testing.T) {
	svc, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	signed, err := svc.Sign("session-token-123")
	require.NoError(t, err)

	// Flip a character in the payload segment.
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = svc.Verify(tampered)
	assert.Error(t, err)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	signer, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)
	verifier, err := auth.NewTokenService("a-different-test-secret!")
	require.NoError(t, err)

	signed, err := signer.Sign("session-token-123")
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	svc, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	for _, v := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Verify(v)
		assert.Error(t, err, "value %q", v)
	}
}
