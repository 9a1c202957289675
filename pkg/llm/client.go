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

// Package llm treats every model call as a fallible oracle: a minimal
// one-shot completion interface, concrete backends (Anthropic/OpenAI/Ollama)
// built on raw net/http, and a retrying, schema-validating wrapper shared by
// every caller.
package llm

import (
	"context"
	"errors"
)

// ErrMalformedOutput is returned when an LLM response fails JSON/schema
// validation.
var ErrMalformedOutput = errors.New("llm: malformed output")

// ErrUnavailable is returned for transport/auth/quota failures.
var ErrUnavailable = errors.New("llm: unavailable")

// Request is a single one-shot completion call. VoiceTree's agents never
// need multi-turn chat or tool use, so this is deliberately narrower than
// a multi-turn chat API.
type Request struct {
	// System is the system prompt (role/instructions).
	System string
	// Prompt is the user turn.
	Prompt string
	// MaxTokens bounds the completion length.
	MaxTokens int
	// Temperature controls sampling randomness. Agents that need
	// deterministic-ish JSON output should use a low value.
	Temperature float64
	// JSONSchema, when non-empty, is appended to the system prompt by
	// CompleteJSON so the model sees the shape its output must take. No
	// backend sends it as a separate response-format field.
	JSONSchema string
}

// Response is a single completion result.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is implemented by every concrete provider backend.
type Client interface {
	// Complete performs one completion call. Implementations must return
	// ErrUnavailable (wrapped) for transport/auth/quota failures so callers
	// can apply the shared retry policy uniformly.
	Complete(ctx context.Context, req Request) (Response, error)
	// Model returns the identifier of the target model, used for token
	// counting and logging.
	Model() string
	Close() error
}
