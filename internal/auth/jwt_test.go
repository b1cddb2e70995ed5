package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	require.NoError(t, Init("test-secret", time.Hour))

	token, err := GenerateToken("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", subject)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	require.NoError(t, Init("test-secret", time.Hour))

	token, err := GenerateToken("alice@example.com")
	require.NoError(t, err)

	require.NoError(t, Init("another-secret", time.Hour))

	_, err = VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	require.NoError(t, Init("test-secret", time.Hour))

	_, err := VerifyToken("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	require.NoError(t, Init("test-secret", time.Hour))

	savedTTL := tokenTTL
	tokenTTL = -time.Minute
	defer func() { tokenTTL = savedTTL }()

	token, err := GenerateToken("alice@example.com")
	require.NoError(t, err)

	_, err = VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateToken_NoSecret(t *testing.T) {
	savedSecret := jwtSecret
	jwtSecret = nil
	defer func() { jwtSecret = savedSecret }()

	_, err := GenerateToken("alice@example.com")
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestInit_EmptySecret(t *testing.T) {
	require.ErrorIs(t, Init("", time.Hour), ErrNoSecret)
}
