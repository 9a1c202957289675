package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DispatchesPerProvider(t *testing.T) {
	cases := []struct {
		provider string
		model    string
	}{
		{"anthropic", "claude-sonnet-4-20250514"},
		{"openai", "gpt-4o"},
		{"ollama", "llama3.2"},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			client, err := NewClient(Config{
				Provider: tc.provider,
				Model:    tc.model,
				APIKey:   "test-key",
				Timeout:  5 * time.Second,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.model, client.Model())
		})
	}
}

func TestNewClient_OllamaDefaultsBaseURL(t *testing.T) {
	client, err := NewClient(Config{Provider: "ollama", Model: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", client.Model())
}

func TestNewClient_UnsupportedProviderErrors(t *testing.T) {
	_, err := NewClient(Config{Provider: "gemini"})
	assert.Error(t, err)
}
