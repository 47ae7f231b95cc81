package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CareOnboard/config"
	"CareOnboard/pkg/errors"
)

func setup(t *testing.T) {
	t.Helper()
	old := config.Cfg
	t.Cleanup(func() { config.Cfg = old })

	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpireMinutes = 30
	config.Cfg.JWTRefreshDays = 7
	require.NoError(t, Init())
}

func TestTokenPair(t *testing.T) {
	setup(t)

	access, refresh, expiresIn, err := GenerateTokenPair("uid-1")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.InDelta(t, 30*60, expiresIn, 2)

	uid, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)

	// access token 不能当 refresh token 用
	_, err = ValidateRefreshToken(access)
	assert.ErrorIs(t, err, errors.ErrInvalidTokenType)
}

func TestRefreshTokenWrongSecret(t *testing.T) {
	setup(t)
	_, refresh, _, err := GenerateTokenPair("uid-1")
	require.NoError(t, err)

	config.Cfg.JWTSecret = "rotated"
	_, err = ValidateRefreshToken(refresh)
	assert.Error(t, err)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	setup(t)
	_, a, _, err := GenerateTokenPair("uid-1")
	require.NoError(t, err)
	_, b, _, err := GenerateTokenPair("uid-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = ValidateRefreshToken("not-a-jwt")
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}
