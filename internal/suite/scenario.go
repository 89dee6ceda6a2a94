// ABOUTME: Suite and scenario definitions loaded from YAML files
// ABOUTME: Applies defaults and validates every scenario before a run starts
package suite

import (
	"fmt"
	"math"
	"os"

	"github.com/harper/driftcheck/internal/llm"
	"github.com/harper/driftcheck/internal/metrics"
	"github.com/harper/driftcheck/internal/validator"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSamples is the number of generations per scenario
	DefaultSamples = 5
	// MaxSamples bounds generations per scenario
	MaxSamples = 100
	// DefaultTemperature is the sampling temperature when a scenario sets none
	DefaultTemperature = 0.7
)

// Scenario is one prompt evaluated for consistency and, optionally, against its baseline
type Scenario struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Samples     int      `yaml:"samples,omitempty" json:"samples"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`

	// Threshold is the pairwise similarity each sample pair should reach.
	// nil means unset; an explicit 0 is kept.
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold"`
	// ZThreshold flags outlier pairs
	ZThreshold float64 `yaml:"z_threshold,omitempty" json:"z_threshold"`
	// BaselineThreshold is the similarity to the stored baseline below which a regression is reported
	BaselineThreshold *float64 `yaml:"baseline_threshold,omitempty" json:"baseline_threshold"`

	Criteria validator.Criteria `yaml:"criteria,omitempty" json:"criteria,omitempty"`
}

// Temp returns the sampling temperature, falling back to DefaultTemperature
func (s Scenario) Temp() float64 {
	if s.Temperature == nil {
		return DefaultTemperature
	}
	return *s.Temperature
}

// PairThreshold returns Threshold, or 0 before defaults are applied
func (s Scenario) PairThreshold() float64 {
	if s.Threshold == nil {
		return 0
	}
	return *s.Threshold
}

// BaselineCutoff returns BaselineThreshold, falling back to PairThreshold
func (s Scenario) BaselineCutoff() float64 {
	if s.BaselineThreshold == nil {
		return s.PairThreshold()
	}
	return *s.BaselineThreshold
}

// Float returns a pointer to v, for building scenarios in code
func Float(v float64) *float64 {
	return &v
}

// DisplayName returns Name, or ID when no name is set
func (s Scenario) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Suite is a named collection of scenarios
type Suite struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Scenarios   []Scenario `yaml:"scenarios" json:"scenarios"`
}

// ApplyDefaults fills unset scenario fields.
// threshold and zThreshold come from configuration.
func (s *Suite) ApplyDefaults(threshold, zThreshold float64) {
	if threshold == 0 {
		threshold = metrics.DefaultSimilarityThreshold
	}
	if zThreshold == 0 {
		zThreshold = metrics.DefaultZThreshold
	}

	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.Samples == 0 {
			sc.Samples = DefaultSamples
		}
		if sc.Threshold == nil {
			sc.Threshold = Float(threshold)
		}
		if sc.ZThreshold == 0 {
			sc.ZThreshold = zThreshold
		}
		if sc.BaselineThreshold == nil {
			sc.BaselineThreshold = Float(*sc.Threshold)
		}
	}
}

// Validate checks every scenario
func (s *Suite) Validate() error {
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("suite %q has no scenarios", s.Name)
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		if sc.ID == "" {
			return fmt.Errorf("scenario %d: id is required", i)
		}
		if seen[sc.ID] {
			return fmt.Errorf("scenario %s: duplicate id", sc.ID)
		}
		seen[sc.ID] = true

		if err := sc.Validate(); err != nil {
			return fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
	}
	return nil
}

// Validate checks a scenario after defaults are applied
func (s Scenario) Validate() error {
	if s.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if s.Samples < 2 || s.Samples > MaxSamples {
		return fmt.Errorf("samples must be between 2 and %d, got %d", MaxSamples, s.Samples)
	}
	if err := llm.ValidateTemperature(s.Temp()); err != nil {
		return err
	}
	if s.Threshold == nil {
		return fmt.Errorf("threshold is not set")
	}
	for name, v := range map[string]float64{"threshold": s.PairThreshold(), "baseline_threshold": s.BaselineCutoff()} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if math.IsNaN(s.ZThreshold) || s.ZThreshold <= 0 {
		return fmt.Errorf("z_threshold must be positive, got %v", s.ZThreshold)
	}
	return s.Criteria.Validate()
}

// Parse decodes a YAML suite, applies defaults and validates it
func Parse(data []byte, threshold, zThreshold float64) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suite: %w", err)
	}
	s.ApplyDefaults(threshold, zThreshold)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a YAML suite file
func LoadFile(path string, threshold, zThreshold float64) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	s, err := Parse(data, threshold, zThreshold)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// DefaultSuite returns the built-in smoke suite used when no file is given
func DefaultSuite() *Suite {
	s := &Suite{
		Name:        "default",
		Description: "Built-in consistency checks for a general-purpose text generator",
		Scenarios: []Scenario{
			{
				ID:     "factual-capital",
				Name:   "Factual answer",
				Prompt: "What is the capital of France? Answer in one sentence.",
				Criteria: validator.Criteria{
					MustInclude: []string{"Paris"},
					MaxLength:   200,
				},
			},
			{
				ID:          "deterministic-greeting",
				Name:        "Greeting at temperature 0",
				Prompt:      "Say hello to a new user in one short sentence.",
				Temperature: Float(0),
				Samples:     3,
				Criteria: validator.Criteria{
					MinLength: 2,
					Tone:      validator.TonePositive,
				},
			},
			{
				ID:     "summary",
				Name:   "Summarisation",
				Prompt: "Summarise in two sentences: The quarterly report shows revenue grew 12% while costs stayed flat, driven by strong subscription renewals.",
				Criteria: validator.Criteria{
					MustInclude: []string{"revenue"},
					MaxLength:   400,
				},
			},
			{
				ID:     "sentiment",
				Name:   "Sentiment classification",
				Prompt: "Classify the sentiment of 'I love this product!' as positive, negative or neutral. Reply with one word.",
				Criteria: validator.Criteria{
					MustInclude: []string{"positive"},
					MaxLength:   40,
				},
			},
		},
	}
	s.ApplyDefaults(0, 0)
	return s
}
