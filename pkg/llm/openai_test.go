package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: "hi back"}}},
			Usage:   openAIUsage{PromptTokens: 5, CompletionTokens: 2},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewOpenAIClient("test-key", "gpt-4o", 0)
	c.host = server.URL

	resp, err := c.Complete(context.Background(), Request{System: "be nice", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi back", resp.Text)
	assert.Equal(t, 5, resp.InputTokens)
	assert.Equal(t, 2, resp.OutputTokens)
}

func TestOpenAIClient_Complete_RateLimitedIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewOpenAIClient("test-key", "gpt-4o", 0)
	c.host = server.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClient_Complete_NoChoicesIsMalformedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAIResponse{})
	}))
	defer server.Close()

	c := NewOpenAIClient("test-key", "gpt-4o", 0)
	c.host = server.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
