package pipeline_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/v42069/kafka-payments/internal/domain/processed"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
	"github.com/v42069/kafka-payments/internal/pipeline"
)

func TestClassifier(t *testing.T) {
	classify := pipeline.NewClassifier()

	t.Run("retryable wrapper", func(t *testing.T) {
		err := pipeline.Retryable(errors.New("connection refused"))
		assert.Equal(t, pipeline.ClassRetryable, classify(err))
	})

	t.Run("not retryable wrapper", func(t *testing.T) {
		err := pipeline.NotRetryable(errors.New("validation failed"))
		assert.Equal(t, pipeline.ClassNotRetryable, classify(err))
	})

	t.Run("storage unavailable is retryable", func(t *testing.T) {
		err := &pipeline.StorageError{Err: errors.New("pool closed")}
		assert.Equal(t, pipeline.ClassRetryable, classify(err))
	})

	t.Run("publish rejection is retryable", func(t *testing.T) {
		err := &broker.PublishError{Topic: "withdraw-money-topic", Err: errors.New("not enough replicas")}
		assert.Equal(t, pipeline.ClassRetryable, classify(err))
	})

	t.Run("wrapped publish rejection is retryable", func(t *testing.T) {
		err := fmt.Errorf("route to dlt: %w", &broker.PublishError{Topic: "withdraw-money-topic.DLT", Err: errors.New("leader not available")})
		assert.Equal(t, pipeline.ClassRetryable, classify(err))
	})

	t.Run("confirmed duplicate is not retryable", func(t *testing.T) {
		err := fmt.Errorf("insert processed event: %w", processed.ErrDuplicate)
		assert.Equal(t, pipeline.ClassNotRetryable, classify(err))
	})

	t.Run("wrapped classification survives", func(t *testing.T) {
		err := fmt.Errorf("handle envelope: %w", pipeline.Retryable(errors.New("remote unavailable")))
		assert.Equal(t, pipeline.ClassRetryable, classify(err))
	})

	t.Run("unknown error defaults to not retryable", func(t *testing.T) {
		assert.Equal(t, pipeline.ClassNotRetryable, classify(errors.New("something unexpected")))
	})
}
