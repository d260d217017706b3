package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable signals a network, status or parse failure of an external source.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInvalidItem signals a result record without a usable title or link.
	ErrInvalidItem = errors.New("invalid result item")
	// ErrInvalidConfig signals malformed static configuration.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrAssistantUnavailable signals a language-model provider failure.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	// ErrIrrelevantAnswer signals a language-model answer rejected by the relevance filter.
	ErrIrrelevantAnswer = errors.New("assistant answer is out of scope")
)

// StatusError is returned when a source answers with a non-2xx status.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned HTTP %d", ErrSourceUnavailable.Error(), e.Source, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrSourceUnavailable }

// NewStatusError creates a status error for the given source.
func NewStatusError(source string, statusCode int) error {
	return &StatusError{Source: source, StatusCode: statusCode}
}
