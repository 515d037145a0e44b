package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	Configure("unit-test-secret")
	defer Configure("")

	token, err := GenerateAccessToken("user-1", "a@example.com", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAndValidateToken(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestParseAndValidateToken_WrongType(t *testing.T) {
	Configure("unit-test-secret")
	defer Configure("")

	token, err := GenerateAccessToken("user-1", "a@example.com", "user", time.Minute)
	require.NoError(t, err)

	_, err = ParseAndValidateToken(token, "refresh")
	assert.Error(t, err)
}

func TestParseAndValidateToken_Expired(t *testing.T) {
	Configure("unit-test-secret")
	defer Configure("")

	token, err := GenerateAccessToken("user-1", "a@example.com", "user", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAndValidateToken(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestParseAndValidateToken_RejectsOtherSecret(t *testing.T) {
	Configure("unit-test-secret")
	defer Configure("")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "typ": TokenTypeAccess, "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("someone-else"))
	require.NoError(t, err)

	_, err = ParseAndValidateToken(forged, TokenTypeAccess)
	assert.Error(t, err)
}

func TestParseAndValidateToken_NoSecret(t *testing.T) {
	Configure("")
	_, err := ParseAndValidateToken("anything", "")
	assert.EqualError(t, err, "JWT secret not configured")
}
