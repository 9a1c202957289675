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

func TestAnthropicClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet-20241022", req.Model)
		assert.Equal(t, "user", req.Messages[0].Role)

		resp := anthropicResponse{
			Content: []anthropicContent{{Type: "text", Text: "hello there"}},
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 3},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewAnthropicClient("test-key", "claude-3-5-sonnet-20241022", 0)
	c.host = server.URL

	resp, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, 10, resp.InputTokens)
	assert.Equal(t, 3, resp.OutputTokens)
}

func TestAnthropicClient_Complete_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer server.Close()

	c := NewAnthropicClient("test-key", "claude-3-5-sonnet-20241022", 0)
	c.host = server.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnthropicClient_Complete_APIErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{Error: &anthropicError{Type: "authentication_error", Message: "bad key"}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewAnthropicClient("test-key", "claude-3-5-sonnet-20241022", 0)
	c.host = server.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnthropicClient_Complete_MalformedBodyIsMalformedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewAnthropicClient("test-key", "claude-3-5-sonnet-20241022", 0)
	c.host = server.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestAnthropicClient_Model(t *testing.T) {
	c := NewAnthropicClient("k", "claude-3-5-sonnet-20241022", 0)
	assert.Equal(t, "claude-3-5-sonnet-20241022", c.Model())
	assert.NoError(t, c.Close())
}
