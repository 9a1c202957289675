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
	"fmt"
	"time"
)

// Config is the subset of pkg/config.LLMConfig that NewClient needs to
// construct a backend. Defined here (rather than importing pkg/config)
// to keep this package free of a dependency on the config layer.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewClient dispatches on cfg.Provider to build the concrete backend, the
// same switch-on-provider-type shape a registry-based provider lookup
// uses to pick a constructor, simplified down to VoiceTree's single
// active client (no multi-provider registry, since every agent shares
// the one configured backend).
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "ollama":
		host := cfg.BaseURL
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaClient(host, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q (supported: anthropic, openai, ollama)", cfg.Provider)
	}
}
