package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "alice", []string{"User"}, secret, 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"User"}, claims.Roles)
}

func TestAccessTokenRejected(t *testing.T) {
	expired, err := GenerateAccessToken(7, "alice", nil, secret, -1)
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	valid, err := GenerateAccessToken(7, "alice", nil, secret, 15)
	require.NoError(t, err)
	_, err = ValidateAccessToken(valid, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateAccessToken("not-a-token", secret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestForeignIssuerRejected(t *testing.T) {
	foreign := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: gojwt.RegisteredClaims{Issuer: "someone-else"},
	})
	signed, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ValidateAccessToken(signed, secret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(3, "abc", secret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "abc", claims.TokenID)
}
