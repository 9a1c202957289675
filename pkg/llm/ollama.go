// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaClient calls a local Ollama server's /api/generate endpoint.
type OllamaClient struct {
	model string
	host  string
	http  *http.Client
}

// NewOllamaClient returns a Client for a local Ollama instance. host
// defaults to the standard local Ollama address when empty.
func NewOllamaClient(host, model string, timeout time.Duration) *OllamaClient {
	if host == "" {
		host = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		model: model,
		host:  host,
		http:  &http.Client{Timeout: timeout},
	}
}

func (c *OllamaClient) Model() string { return c.model }
func (c *OllamaClient) Close() error  { return nil }

type ollamaRequest struct {
	Model   string                 `json:"model"`
	System  string                 `json:"system,omitempty"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	// Ollama reports token counts as "eval" counts on the final chunk.
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

func (c *OllamaClient) Complete(ctx context.Context, req Request) (Response, error) {
	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	payload := ollamaRequest{
		Model:   c.model,
		System:  req.System,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: options,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("llm: encoding ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return Response{}, fmt.Errorf("%w: ollama returned status %d: %s", ErrUnavailable, httpResp.StatusCode, string(raw))
	}
	if httpResp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("%w: ollama returned status %d: %s", ErrUnavailable, httpResp.StatusCode, string(raw))
	}

	var decoded ollamaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, fmt.Errorf("%w: decoding ollama response: %v", ErrMalformedOutput, err)
	}

	return Response{
		Text:         decoded.Response,
		InputTokens:  decoded.PromptEvalCount,
		OutputTokens: decoded.EvalCount,
	}, nil
}
