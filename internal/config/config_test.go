package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v42069/kafka-payments/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "product-created-events", cfg.Kafka.GroupID)
	assert.Equal(t, "deposit-service", cfg.Kafka.DepositGroupID)
	assert.Equal(t, 3, cfg.Kafka.MaxAttempts)
	assert.Equal(t, "5s", cfg.Kafka.Backoff.String())
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("KAFKA_MAX_ATTEMPTS", "5")
	t.Setenv("KAFKA_DEPOSIT_GROUP_ID", "deposit-service-2")

	cfg, err := config.New()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Kafka.MaxAttempts)
	assert.Equal(t, "deposit-service-2", cfg.Kafka.DepositGroupID)
}

func TestNew_InvalidEnvFailsClosed(t *testing.T) {
	// Callers must treat an error as fatal: there is no config to fall
	// back on.
	t.Setenv("KAFKA_MAX_ATTEMPTS", "not-a-number")

	cfg, err := config.New()
	require.Error(t, err)
	assert.Nil(t, cfg)
}
