// ABOUTME: Error kinds shared by the scorer, metrics calculator and regression detector
// ABOUTME: Callers match them with errors.Is; none of them are ever swallowed into a score
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingFailure means the embedding function could not produce a vector for a text.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrInsufficientData means an aggregate was requested over zero data points.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidThreshold means a threshold or z-score parameter is outside its domain.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidScore means a similarity score is not a number.
	ErrInvalidScore = errors.New("invalid score")
)

// EmbeddingError describes a failed embedding call.
// It matches ErrEmbeddingFailure under errors.Is and unwraps to the backend cause.
type EmbeddingError struct {
	Model   string
	TextLen int
	Err     error
}

// NewEmbeddingError wraps a backend failure for a text of the given length
func NewEmbeddingError(model string, textLen int, err error) *EmbeddingError {
	return &EmbeddingError{Model: model, TextLen: textLen, Err: err}
}

func (e *EmbeddingError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("embedding failure (text length %d): %v", e.TextLen, e.Err)
	}
	return fmt.Sprintf("embedding failure (model %s, text length %d): %v", e.Model, e.TextLen, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Is reports ErrEmbeddingFailure as a match
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingFailure
}

// InvalidThreshold builds an ErrInvalidThreshold error naming the parameter and value
func InvalidThreshold(name string, value float64) error {
	return fmt.Errorf("%w: %s must be within its valid range, got %v", ErrInvalidThreshold, name, value)
}
