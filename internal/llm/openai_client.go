// ABOUTME: OpenAI client for chat generation and embeddings
// ABOUTME: Uses gpt-4o-mini for generation and text-embedding-3-small for embeddings (configurable)
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/harper/driftcheck/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultTimeout bounds each individual API request
	DefaultTimeout = 30 * time.Second
)

var errNoChoices = errors.New("no completion choices returned")

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	chatModel := os.Getenv("DRIFTCHECK_CHAT_MODEL")
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &ClientConfig{
		APIKey:         apiKey,
		BaseURL:        os.Getenv("OPENAI_BASE_URL"),
		ChatModel:      chatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Timeout:        DefaultTimeout,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	maxTokens      int
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config == nil {
		return nil, fmt.Errorf("client config is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(apiConfig),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		maxTokens:      config.MaxTokens,
		timeout:        timeout,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
	}, nil
}

// GetClient returns the underlying OpenAI client for direct use
func (c *OpenAIClient) GetClient() *openai.Client {
	return c.client
}

// ChatModel returns the model used for generation
func (c *OpenAIClient) ChatModel() string {
	return c.chatModel
}

// EmbeddingModel returns the model used for embeddings
func (c *OpenAIClient) EmbeddingModel() string {
	return string(c.embeddingModel)
}

// Generate returns a single completion for prompt
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, temperature float64) (Completion, error) {
	completions, err := c.GenerateMultiple(ctx, prompt, 1, temperature)
	if err != nil {
		return Completion{}, err
	}
	return completions[0], nil
}

// GenerateMultiple asks for n choices in one request and tops up with
// further requests when the backend returns fewer than asked for.
func (c *OpenAIClient) GenerateMultiple(ctx context.Context, prompt string, n int, temperature float64) ([]Completion, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if err := ValidateTemperature(temperature); err != nil {
		return nil, err
	}

	completions := make([]Completion, 0, n)
	for len(completions) < n {
		batch, err := c.complete(ctx, prompt, n-len(completions), temperature)
		if err != nil {
			return nil, fmt.Errorf("failed to generate completions (%d of %d done): %w", len(completions), n, err)
		}
		completions = append(completions, batch...)
	}

	return completions[:n], nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, n int, temperature float64) ([]Completion, error) {
	// The API treats an omitted temperature as 1.0, and the request type drops zero values
	temp := float32(temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	var completions []Completion
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, isRetryable, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		start := time.Now()
		resp, err := c.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: temp,
			N:           n,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errNoChoices
		}

		latency := time.Since(start)
		// Usage is reported per request, so each choice gets an even share
		tokens := resp.Usage.CompletionTokens / len(resp.Choices)

		completions = make([]Completion, len(resp.Choices))
		for i, choice := range resp.Choices {
			completions[i] = Completion{
				Text:         choice.Message.Content,
				Model:        resp.Model,
				FinishReason: string(choice.FinishReason),
				TokensUsed:   tokens,
				Latency:      latency,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return completions, nil
}

// GenerateEmbedding returns the embedding vector for text using the configured embedding model
func (c *OpenAIClient) GenerateEmbedding(text string) ([]float64, error) {
	var embedding64 []float64

	err := util.Retry(context.Background(), c.maxRetries, c.retryDelay, isRetryable, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(attemptCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return errors.New("no embeddings returned")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding64 = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding64[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	return embedding64, nil
}

// isRetryable reports whether a failed request is worth repeating.
// Rate limits, server errors and transport failures are; client errors are not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
