// ABOUTME: Generation capability shared by the real OpenAI client and the mock client
// ABOUTME: Callers hold a Generator and never inspect which backend they were given
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// MinTemperature and MaxTemperature bound the sampling temperature accepted by every backend
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

var (
	// ErrInvalidTemperature is returned for temperatures outside [MinTemperature, MaxTemperature]
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidCount is returned when fewer than one generation is requested
	ErrInvalidCount = errors.New("invalid generation count")
)

// Completion is one generated output
type Completion struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason,omitempty"`
	TokensUsed   int           `json:"tokens_used"`
	Latency      time.Duration `json:"latency"`
}

// Generator produces text for a prompt
type Generator interface {
	// Generate returns a single completion for prompt
	Generate(ctx context.Context, prompt string, temperature float64) (Completion, error)

	// GenerateMultiple returns exactly n independent completions for prompt
	GenerateMultiple(ctx context.Context, prompt string, n int, temperature float64) ([]Completion, error)
}

// ValidateTemperature checks t against the accepted sampling range
func ValidateTemperature(t float64) error {
	if math.IsNaN(t) || t < MinTemperature || t > MaxTemperature {
		return fmt.Errorf("%w: %v (must be between %.1f and %.1f)", ErrInvalidTemperature, t, MinTemperature, MaxTemperature)
	}
	return nil
}

// Texts extracts the generated text from each completion
func Texts(completions []Completion) []string {
	texts := make([]string, len(completions))
	for i, c := range completions {
		texts[i] = c.Text
	}
	return texts
}
