package pipeline

import (
	"errors"

	"github.com/v42069/kafka-payments/internal/domain/processed"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
)

// Class is the terminal verdict on a processing failure.
type Class int

const (
	ClassRetryable Class = iota
	ClassNotRetryable
)

func (c Class) String() string {
	if c == ClassRetryable {
		return "retryable"
	}
	return "not_retryable"
}

// ClassifyFunc maps a processing failure to a Class. It must be total: every
// error maps to exactly one class.
type ClassifyFunc func(error) Class

type rule struct {
	match func(error) bool
	class Class
}

// NewClassifier builds the default table-driven classifier.
//
// Transient conditions (transport failures, remote 5xx, storage down, broker
// publish rejection) are retryable. Validation failures, malformed payloads
// and confirmed duplicates are not. An unclassified error defaults to
// NotRetryable so an unknown failure cannot spin in an infinite retry loop.
func NewClassifier() ClassifyFunc {
	rules := []rule{
		{match: func(err error) bool {
			var e *RetryableError
			return errors.As(err, &e)
		}, class: ClassRetryable},
		{match: func(err error) bool {
			var e *NotRetryableError
			return errors.As(err, &e)
		}, class: ClassNotRetryable},
		{match: func(err error) bool {
			var e *StorageError
			return errors.As(err, &e)
		}, class: ClassRetryable},
		{match: func(err error) bool {
			var e *broker.PublishError
			return errors.As(err, &e)
		}, class: ClassRetryable},
		{match: func(err error) bool {
			return errors.Is(err, processed.ErrDuplicate)
		}, class: ClassNotRetryable},
	}

	return func(err error) Class {
		for _, r := range rules {
			if r.match(err) {
				return r.class
			}
		}
		return ClassNotRetryable
	}
}
