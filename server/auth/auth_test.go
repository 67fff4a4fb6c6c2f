package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken(42, "secret", time.Now())
	require.NoError(t, err)

	memberID, err := verifySessionToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int32(42), memberID)
}

func TestVerifySessionToken_WrongSecret(t *testing.T) {
	token, err := GenerateSessionToken(42, "secret", time.Now())
	require.NoError(t, err)

	_, err = verifySessionToken(token, "other-secret")
	assert.Error(t, err)
}

func TestVerifySessionToken_Expired(t *testing.T) {
	token, err := GenerateSessionToken(42, "secret", time.Now().Add(-AccessTokenDuration-time.Hour))
	require.NoError(t, err)

	_, err = verifySessionToken(token, "secret")
	assert.Error(t, err)
}

func TestVerifySessionToken_Garbage(t *testing.T) {
	_, err := verifySessionToken("not-a-token", "secret")
	assert.Error(t, err)
}
