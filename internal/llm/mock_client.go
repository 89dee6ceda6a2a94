// ABOUTME: Deterministic in-process Generator for tests, demos and offline suite runs
// ABOUTME: Returns canned variants per prompt and records every call it receives
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCall records one request made to a MockClient
type MockCall struct {
	Prompt      string
	N           int
	Temperature float64
}

// MockClient is a Generator that never touches the network.
// Temperature 0 always yields the first variant for a prompt; any other
// temperature rotates through the variants in order.
// Thread Safety: safe for concurrent use.
type MockClient struct {
	mu       sync.Mutex
	model    string
	variants map[string][]string
	cursor   map[string]int
	calls    []MockCall
	failErr  error
	latency  time.Duration
}

var _ Generator = (*MockClient)(nil)

// MockOption configures a MockClient
type MockOption func(*MockClient)

// WithVariants sets the outputs returned for prompt
func WithVariants(prompt string, variants ...string) MockOption {
	return func(m *MockClient) {
		m.variants[prompt] = append([]string(nil), variants...)
	}
}

// WithFailure makes every call fail with err
func WithFailure(err error) MockOption {
	return func(m *MockClient) {
		m.failErr = err
	}
}

// WithLatency sets the latency reported on each completion
func WithLatency(d time.Duration) MockOption {
	return func(m *MockClient) {
		m.latency = d
	}
}

// WithMockModel sets the model name reported on each completion
func WithMockModel(model string) MockOption {
	return func(m *MockClient) {
		m.model = model
	}
}

// NewMockClient creates a mock generator
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		model:    "mock",
		variants: make(map[string][]string),
		cursor:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate returns a single canned completion
func (m *MockClient) Generate(ctx context.Context, prompt string, temperature float64) (Completion, error) {
	completions, err := m.GenerateMultiple(ctx, prompt, 1, temperature)
	if err != nil {
		return Completion{}, err
	}
	return completions[0], nil
}

// GenerateMultiple returns n canned completions
func (m *MockClient) GenerateMultiple(ctx context.Context, prompt string, n int, temperature float64) ([]Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Prompt: prompt, N: n, Temperature: temperature})

	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if err := ValidateTemperature(temperature); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failErr != nil {
		return nil, m.failErr
	}

	variants := m.variants[prompt]
	if len(variants) == 0 {
		variants = defaultVariants(prompt)
	}

	completions := make([]Completion, n)
	for i := range completions {
		text := variants[0]
		if temperature > 0 {
			text = variants[m.cursor[prompt]%len(variants)]
			m.cursor[prompt]++
		}
		completions[i] = Completion{
			Text:         text,
			Model:        m.model,
			FinishReason: "stop",
			TokensUsed:   len(text) / 4,
			Latency:      m.latency,
		}
	}

	return completions, nil
}

// Calls returns a copy of the recorded calls
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Reset clears recorded calls and rotation state
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.cursor = make(map[string]int)
}

func defaultVariants(prompt string) []string {
	return []string{
		fmt.Sprintf("Here is a response to your request: %s", prompt),
		fmt.Sprintf("Here is my response to the request: %s", prompt),
		fmt.Sprintf("This is a response to your request: %s", prompt),
	}
}
