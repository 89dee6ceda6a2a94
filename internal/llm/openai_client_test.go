package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	N           int     `json:"n"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func chatResponse(texts ...string) map[string]any {
	choices := make([]map[string]any, len(texts))
	for i, text := range texts {
		choices[i] = map[string]any{
			"index":         i,
			"message":       map[string]any{"role": "assistant", "content": text},
			"finish_reason": "stop",
		}
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": choices,
		"usage":   map[string]any{"prompt_tokens": 5, "completion_tokens": 10 * len(texts), "total_tokens": 5 + 10*len(texts)},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOpenAIClientWithConfig(&ClientConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		ChatModel:  "gpt-4o-mini",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func decodeChat(t *testing.T, r *http.Request) chatRequest {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var req chatRequest
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	assert.Error(t, err)

	_, err = NewOpenAIClientWithConfig(nil)
	assert.Error(t, err)
}

func TestOpenAIClient_GenerateMultipleSingleRequest(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		req := decodeChat(t, r)
		assert.Equal(t, 3, req.N)
		writeJSON(t, w, http.StatusOK, chatResponse("a", "b", "c"))
	})

	out, err := client.GenerateMultiple(context.Background(), "say something", 3, 0.7)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, Texts(out))
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 10, out[0].TokensUsed)
	assert.Equal(t, "stop", out[0].FinishReason)
}

func TestOpenAIClient_SendsMaxTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, 64, decodeChat(t, r).MaxTokens)
		writeJSON(t, w, http.StatusOK, chatResponse("short"))
	}))
	t.Cleanup(srv.Close)

	client, err := NewOpenAIClientWithConfig(&ClientConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL + "/v1",
		ChatModel: "gpt-4o-mini",
		MaxTokens: 64,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "say something", 0.7)
	require.NoError(t, err)
	assert.LessOrEqual(t, out.TokensUsed, 64)
}

func TestOpenAIClient_GenerateMultipleTopsUp(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		writeJSON(t, w, http.StatusOK, chatResponse("choice-"+string(rune('0'+n))))
	})

	out, err := client.GenerateMultiple(context.Background(), "p", 3, 1.0)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, int32(3), requests.Load())
}

func TestOpenAIClient_ZeroTemperatureIsSent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeChat(t, r)
		assert.Greater(t, req.Temperature, 0.0, "temperature must not be dropped from the request")
		assert.Less(t, req.Temperature, 1e-6)
		writeJSON(t, w, http.StatusOK, chatResponse("x"))
	})

	_, err := client.Generate(context.Background(), "p", 0)
	require.NoError(t, err)
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			writeJSON(t, w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "rate limited", "type": "rate_limit_error"},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, chatResponse("ok"))
	})

	c, err := client.Generate(context.Background(), "p", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Text)
	assert.Equal(t, int32(2), requests.Load())
}

func TestOpenAIClient_RetriesServerError(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.Generate(context.Background(), "p", 0.5)
	require.Error(t, err)
	assert.Equal(t, int32(3), requests.Load(), "1 attempt + 2 retries")
}

func TestOpenAIClient_ClientErrorsFailFast(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var requests atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				writeJSON(t, w, status, map[string]any{
					"error": map[string]any{"message": "nope", "type": "invalid_request_error"},
				})
			})

			_, err := client.Generate(context.Background(), "p", 0.5)
			require.Error(t, err)
			assert.Equal(t, int32(1), requests.Load())
		})
	}
}

func TestOpenAIClient_ValidatesArguments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.GenerateMultiple(context.Background(), "p", 0, 0.5)
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = client.Generate(context.Background(), "p", 2.1)
	assert.ErrorIs(t, err, ErrInvalidTemperature)
}

func TestOpenAIClient_GenerateEmbedding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.5, -0.25, 1}},
			},
		})
	})

	vec, err := client.GenerateEmbedding("hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.25, 1}, vec)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(io.ErrUnexpectedEOF))
	assert.True(t, retryableStatus(http.StatusTooManyRequests))
	assert.True(t, retryableStatus(http.StatusServiceUnavailable))
	assert.False(t, retryableStatus(http.StatusUnauthorized))
}
