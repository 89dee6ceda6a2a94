// ABOUTME: Behavioral validator checking generated text against typed criteria
// ABOUTME: Each configured criterion is evaluated and reported independently
package validator

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Tone is the expected overall sentiment of a response
type Tone string

const (
	ToneAny      Tone = ""
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// IsValid checks if the tone is a known value
func (t Tone) IsValid() bool {
	switch t {
	case ToneAny, TonePositive, ToneNegative, ToneNeutral:
		return true
	default:
		return false
	}
}

// Criteria describes what an acceptable response looks like.
// Zero values disable the corresponding check.
type Criteria struct {
	MustInclude []string      `yaml:"must_include,omitempty" json:"must_include,omitempty"`
	MustExclude []string      `yaml:"must_exclude,omitempty" json:"must_exclude,omitempty"`
	MinLength   int           `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength   int           `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Tone        Tone          `yaml:"tone,omitempty" json:"tone,omitempty"`
	MaxLatency  time.Duration `yaml:"max_latency,omitempty" json:"max_latency,omitempty"`
	// MaxTokens bounds the tokens the backend reports for one response
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// Response is one generated output as seen by the validator
type Response struct {
	Text       string
	Latency    time.Duration
	TokensUsed int
}

// Validate checks the criteria themselves for consistency
func (c Criteria) Validate() error {
	if c.MinLength < 0 || c.MaxLength < 0 {
		return fmt.Errorf("length bounds must not be negative")
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("min_length %d exceeds max_length %d", c.MinLength, c.MaxLength)
	}
	if !c.Tone.IsValid() {
		return fmt.Errorf("unknown tone %q (valid: positive, negative, neutral)", c.Tone)
	}
	if c.MaxLatency < 0 {
		return fmt.Errorf("max_latency must not be negative")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return nil
}

// IsEmpty reports whether no criterion is configured
func (c Criteria) IsEmpty() bool {
	return len(c.MustInclude) == 0 && len(c.MustExclude) == 0 &&
		c.MinLength == 0 && c.MaxLength == 0 && c.Tone == ToneAny && c.MaxLatency == 0 && c.MaxTokens == 0
}

// CriterionResult is the outcome of one criterion
type CriterionResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Result is the outcome of validating one response
type Result struct {
	Passed   bool              `json:"passed"`
	Criteria []CriterionResult `json:"criteria"`
}

// Failures returns only the failed criteria
func (r Result) Failures() []CriterionResult {
	var out []CriterionResult
	for _, c := range r.Criteria {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Check evaluates text and its generation latency against c.
// The token budget is not checked; use CheckResponse when usage is known.
func (c Criteria) Check(text string, latency time.Duration) Result {
	budget := c
	budget.MaxTokens = 0
	return budget.CheckResponse(Response{Text: text, Latency: latency})
}

// CheckResponse evaluates a full response, token usage included
func (c Criteria) CheckResponse(r Response) Result {
	var results []CriterionResult
	text, latency := r.Text, r.Latency

	if len(c.MustInclude) > 0 {
		results = append(results, checkInclude(text, c.MustInclude))
	}
	if len(c.MustExclude) > 0 {
		results = append(results, checkExclude(text, c.MustExclude))
	}
	if c.MinLength > 0 || c.MaxLength > 0 {
		results = append(results, checkLength(text, c.MinLength, c.MaxLength))
	}
	if c.Tone != ToneAny {
		results = append(results, checkTone(text, c.Tone))
	}
	if c.MaxLatency > 0 {
		results = append(results, checkLatency(latency, c.MaxLatency))
	}
	if c.MaxTokens > 0 {
		results = append(results, checkTokens(r.TokensUsed, c.MaxTokens))
	}

	passed := true
	for _, r := range results {
		passed = passed && r.Passed
	}
	return Result{Passed: passed, Criteria: results}
}

func checkInclude(text string, expected []string) CriterionResult {
	upper := strings.ToUpper(text)
	var missing []string
	for _, e := range expected {
		if !strings.Contains(upper, strings.ToUpper(e)) {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		return CriterionResult{Name: "must_include", Detail: fmt.Sprintf("missing expected items: %v", missing)}
	}
	return CriterionResult{Name: "must_include", Passed: true, Detail: "all expected items present"}
}

func checkExclude(text string, forbidden []string) CriterionResult {
	upper := strings.ToUpper(text)
	var found []string
	for _, f := range forbidden {
		if strings.Contains(upper, strings.ToUpper(f)) {
			found = append(found, f)
		}
	}
	if len(found) > 0 {
		return CriterionResult{Name: "must_exclude", Detail: fmt.Sprintf("forbidden items found: %v", found)}
	}
	return CriterionResult{Name: "must_exclude", Passed: true, Detail: "no forbidden items"}
}

func checkLength(text string, minLen, maxLen int) CriterionResult {
	n := utf8.RuneCountInString(text)
	switch {
	case minLen > 0 && n < minLen:
		return CriterionResult{Name: "length", Detail: fmt.Sprintf("length %d below minimum %d", n, minLen)}
	case maxLen > 0 && n > maxLen:
		return CriterionResult{Name: "length", Detail: fmt.Sprintf("length %d above maximum %d", n, maxLen)}
	}
	return CriterionResult{Name: "length", Passed: true, Detail: fmt.Sprintf("length %d within bounds", n)}
}

func checkTone(text string, want Tone) CriterionResult {
	got := DetectTone(text)
	if got != want {
		return CriterionResult{Name: "tone", Detail: fmt.Sprintf("tone %s, expected %s", got, want)}
	}
	return CriterionResult{Name: "tone", Passed: true, Detail: fmt.Sprintf("tone %s", got)}
}

func checkLatency(latency, limit time.Duration) CriterionResult {
	if latency > limit {
		return CriterionResult{Name: "latency", Detail: fmt.Sprintf("latency %s exceeds %s", latency, limit)}
	}
	return CriterionResult{Name: "latency", Passed: true, Detail: fmt.Sprintf("latency %s within %s", latency, limit)}
}

func checkTokens(used, limit int) CriterionResult {
	if used > limit {
		return CriterionResult{Name: "tokens", Detail: fmt.Sprintf("%d tokens used, budget %d", used, limit)}
	}
	return CriterionResult{Name: "tokens", Passed: true, Detail: fmt.Sprintf("%d tokens within budget %d", used, limit)}
}

// Validate evaluates text against criteria
func Validate(criteria Criteria, text string, latency time.Duration) Result {
	return criteria.Check(text, latency)
}
