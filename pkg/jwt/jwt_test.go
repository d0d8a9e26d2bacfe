package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "tsukikage-contact", 30*time.Minute)

	token, err := tm.GenerateToken("session-1")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "tsukikage-contact", claims.Issuer)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("secret", "tsukikage-contact", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := tm.GenerateToken("session-1")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret", "tsukikage-contact", time.Minute).GenerateToken("session-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other", "tsukikage-contact", time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	token, err := NewTokenManager("secret", "someone-else", time.Minute).GenerateToken("session-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "tsukikage-contact", time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := SessionClaims{SessionID: "session-1"}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "", time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
