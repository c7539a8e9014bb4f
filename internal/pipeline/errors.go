package pipeline

import "fmt"

// RetryableError marks a transient failure: the redelivery controller will
// re-invoke the handler until maxAttempts is exhausted.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return fmt.Sprintf("retryable: %v", e.Err) }
func (e *RetryableError) Unwrap() error { return e.Err }

// NotRetryableError marks a permanent failure: the envelope goes straight to
// the dead-letter topic.
type NotRetryableError struct {
	Err error
}

func (e *NotRetryableError) Error() string { return fmt.Sprintf("not retryable: %v", e.Err) }
func (e *NotRetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// NotRetryable wraps err as permanent.
func NotRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NotRetryableError{Err: err}
}

// StorageError marks the idempotency or transfer store as unavailable.
// The store being down is transient, so the classifier treats it as retryable.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
