package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortEncryptionKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENCRYPTION_KEY", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "+91", cfg.DefaultCountryPrefix)
	assert.Equal(t, "sms", cfg.VerificationProvider)
	assert.Equal(t, 15, cfg.VerificationTimeoutSeconds)
	assert.Equal(t, "15s", cfg.VerificationTimeout().String())
	assert.Equal(t, "cob", cfg.RedisPrefix)
	assert.True(t, cfg.IsDevelopment())
}

func TestMockProviderNotAllowedInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("VERIFICATION_PROVIDER", "mock")
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
}

func TestRabbitMQURL(t *testing.T) {
	c := Config{
		RabbitMQUsername: "guest",
		RabbitMQPassword: "pw",
		RabbitMQAddr:     "mq",
		RabbitMQPort:     "5672",
		RabbitMQVhost:    "/",
	}
	assert.Equal(t, "amqp://guest:pw@mq:5672/", c.GetRabbitMQURL())
}
