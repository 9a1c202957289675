// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"time"
)

// EmbedderProvider identifies the embedding provider type.
type EmbedderProvider string

// EmbedderProviderOpenAI is the only supported embedder provider;
// VoiceTree's context selector treats semantic search as strictly
// optional (spec's default path is TF-IDF only), so only one concrete
// backend is wired.
const EmbedderProviderOpenAI EmbedderProvider = "openai"

// EmbedderConfig configures pkg/embedder.OpenAIEmbedder, used by the
// context selector's optional vector-backed node ranking. A zero-value
// Provider means embeddings are disabled.
type EmbedderConfig struct {
	// Provider selects the embedding backend. Empty disables embeddings.
	Provider EmbedderProvider `yaml:"provider,omitempty"`

	// Model name (e.g., "text-embedding-3-small").
	Model string `yaml:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// Host overrides the default API endpoint.
	Host string `yaml:"host,omitempty"`

	// Dimension overrides the model's default embedding size.
	Dimension int `yaml:"dimension,omitempty"`

	// BatchSize bounds how many texts are embedded per request.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Timeout bounds a single embedding request.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Enabled reports whether an embedder should be constructed.
func (c EmbedderConfig) Enabled() bool {
	return c.Provider != ""
}

// SetDefaults applies default values.
func (c *EmbedderConfig) SetDefaults() {
	if !c.Enabled() {
		return
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the embedder configuration.
func (c *EmbedderConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Provider != EmbedderProviderOpenAI {
		return fmt.Errorf("invalid provider %q (valid: openai)", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required when embedder is enabled")
	}
	return nil
}
