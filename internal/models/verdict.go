// ABOUTME: Regression verdict and severity tiers for baseline comparisons
// ABOUTME: Severity is ordered NONE < LOW < MEDIUM < HIGH < CRITICAL
package models

import (
	"fmt"
	"strings"
)

// Severity is the tier assigned to a drop in similarity below the threshold
type Severity string

const (
	// SeverityNone - current score is at or above the threshold
	SeverityNone Severity = "NONE"

	// SeverityLow - delta in (0, 0.05]
	SeverityLow Severity = "LOW"

	// SeverityMedium - delta in (0.05, 0.15]
	SeverityMedium Severity = "MEDIUM"

	// SeverityHigh - delta in (0.15, 0.30]
	SeverityHigh Severity = "HIGH"

	// SeverityCritical - delta above 0.30
	SeverityCritical Severity = "CRITICAL"
)

var severityRanks = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// IsValid checks if the severity is one of the defined tiers
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Rank returns the ordinal of the tier, -1 for unknown values
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is as severe as other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ParseSeverity parses a tier name case-insensitively
func ParseSeverity(v string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown severity %q (valid: NONE, LOW, MEDIUM, HIGH, CRITICAL)", v)
	}
	return s, nil
}

// UnmarshalText lets config files spell tiers in any case
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RegressionVerdict is the outcome of comparing one current output against its baseline
type RegressionVerdict struct {
	PromptID           string   `json:"prompt_id,omitempty"`
	Similarity         float64  `json:"similarity"`
	Threshold          float64  `json:"threshold"`
	RegressionDetected bool     `json:"regression_detected"`
	Severity           Severity `json:"severity"`
	Delta              float64  `json:"delta"`
	Clamped            bool     `json:"clamped,omitempty"`
}
