// ABOUTME: Baseline entries associate a prompt identifier with an accepted output
// ABOUTME: Optionally carries the precomputed embedding vector of that output
package models

import (
	"fmt"
	"time"
)

// BaselineEntry is a previously accepted output stored for regression comparison
type BaselineEntry struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"prompt_id"`
	Text      string    `json:"text"`
	Vector    []float64 `json:"vector,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasVector reports whether a precomputed embedding is stored
func (b *BaselineEntry) HasVector() bool {
	return len(b.Vector) > 0
}

// ValidateDimension checks the stored vector against the embedder's dimension
func (b *BaselineEntry) ValidateDimension(expected int) error {
	if len(b.Vector) == 0 {
		return fmt.Errorf("baseline %s: vector cannot be empty", b.PromptID)
	}
	if len(b.Vector) != expected {
		return fmt.Errorf("baseline %s: dimension mismatch: expected %d, got %d", b.PromptID, expected, len(b.Vector))
	}
	return nil
}

// Validate checks the fields every stored baseline must have
func (b *BaselineEntry) Validate() error {
	if b.PromptID == "" {
		return fmt.Errorf("baseline prompt_id is required")
	}
	if b.ID == "" {
		return fmt.Errorf("baseline %s: id is required", b.PromptID)
	}
	return nil
}
