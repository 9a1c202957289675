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

// Package config loads VoiceTree's single YAML configuration document:
// which LLM and embedder back the agents, where the pipeline writes its
// markdown tree, and the tuning knobs that govern a ProcessFragment cycle.
//
// Example config:
//
//	llm:
//	  provider: anthropic
//	  model: claude-sonnet-4-20250514
//	  api_key: ${ANTHROPIC_API_KEY}
//
//	markdown:
//	  output_dir: ./tree
//
//	pipeline:
//	  buffer_size_threshold: 500
//	  orphan_connection_interval: 50
//
//	server:
//	  port: 8080
package config

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/voicetree/pkg/observability"
	"github.com/kadirpekel/voicetree/pkg/vector"
)

// Config is the root configuration structure.
type Config struct {
	// Name identifies this configuration (for logging/display).
	Name string `yaml:"name,omitempty"`

	// LLM configures the model backend the agents call.
	LLM LLMConfig `yaml:"llm,omitempty"`

	// Embedder optionally configures semantic search over node content.
	// Nil (the zero value's Provider being empty) disables it; the
	// context selector then falls back to TF-IDF only.
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`

	// Vector configures where node embeddings are stored once Embedder is
	// enabled; ignored entirely when it isn't (see pkg/vector.Index, the
	// adapter wiring the two together into the context selector's
	// VectorBackend).
	Vector vector.ProviderConfig `yaml:"vector,omitempty"`

	// Markdown configures the on-disk tree output.
	Markdown MarkdownConfig `yaml:"markdown,omitempty"`

	// Pipeline configures the transcript-processing cycle.
	Pipeline PipelineConfig `yaml:"pipeline,omitempty"`

	// Server configures cmd/voicetree's HTTP surface.
	Server ServerConfig `yaml:"server,omitempty"`

	// Observability configures metrics collection.
	Observability observability.Config `yaml:"observability,omitempty"`

	// Logger configures logging behavior.
	Logger LoggerConfig `yaml:"logger,omitempty"`
}

// MarkdownConfig configures the markdown tree writer/loader.
type MarkdownConfig struct {
	// OutputDir is the directory node files are written to and, on
	// restart, loaded back from.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// SetDefaults applies default values to MarkdownConfig.
func (c *MarkdownConfig) SetDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "./tree"
	}
}

// Validate checks the MarkdownConfig for errors.
func (c *MarkdownConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}

// PipelineConfig configures pkg/pipeline.Orchestrator's tuning knobs.
type PipelineConfig struct {
	// BufferSizeThreshold is the raw transcript-character count that
	// triggers a ProcessFragment cycle.
	BufferSizeThreshold int `yaml:"buffer_size_threshold,omitempty"`

	// TranscriptHistoryMultiplier sets how many multiples of
	// BufferSizeThreshold the history manager retains.
	TranscriptHistoryMultiplier int `yaml:"transcript_history_multiplier,omitempty"`

	// MaxNodesForLLMContext bounds how many candidate nodes the context
	// selector surfaces to the append agent per cycle.
	MaxNodesForLLMContext int `yaml:"max_nodes_for_llm_context,omitempty"`

	// OrphanConnectionInterval is how many mutated node-ids accumulate
	// between Connect-Orphans maintenance passes.
	OrphanConnectionInterval int `yaml:"orphan_connection_interval,omitempty"`

	// HistoryFilePath optionally persists transcript history to disk;
	// empty keeps it in-memory only.
	HistoryFilePath string `yaml:"history_file_path,omitempty"`
}

// SetDefaults applies default values to PipelineConfig. These mirror the
// defaults pkg/pipeline.New falls back to itself; spelling them out here
// keeps a loaded config's printed/serialized form self-describing.
func (c *PipelineConfig) SetDefaults() {
	if c.BufferSizeThreshold == 0 {
		c.BufferSizeThreshold = 83
	}
	if c.TranscriptHistoryMultiplier == 0 {
		c.TranscriptHistoryMultiplier = 3
	}
	if c.MaxNodesForLLMContext == 0 {
		c.MaxNodesForLLMContext = 20
	}
	if c.OrphanConnectionInterval == 0 {
		c.OrphanConnectionInterval = 50
	}
}

// Validate checks PipelineConfig for errors.
func (c *PipelineConfig) Validate() error {
	if c.BufferSizeThreshold <= 0 {
		return fmt.Errorf("buffer_size_threshold must be positive")
	}
	if c.TranscriptHistoryMultiplier <= 0 {
		return fmt.Errorf("transcript_history_multiplier must be positive")
	}
	if c.MaxNodesForLLMContext <= 0 {
		return fmt.Errorf("max_nodes_for_llm_context must be positive")
	}
	if c.OrphanConnectionInterval <= 0 {
		return fmt.Errorf("orphan_connection_interval must be positive")
	}
	return nil
}

// ServerConfig configures the HTTP surface cmd/voicetree's serve
// subcommand exposes.
type ServerConfig struct {
	// Host to bind to.
	Host string `yaml:"host,omitempty"`
	// Port to listen on.
	Port int `yaml:"port,omitempty"`
}

// SetDefaults applies default values to ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// SetDefaults applies default values across the whole config.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()
	c.Embedder.SetDefaults()
	c.Vector.SetDefaults()
	c.Markdown.SetDefaults()
	c.Pipeline.SetDefaults()
	c.Server.SetDefaults()
	c.Observability.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks the configuration for errors, collecting every
// sub-validation failure rather than stopping at the first one.
func (c *Config) Validate() error {
	var errs []string

	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("llm: %v", err))
	}
	if err := c.Embedder.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("embedder: %v", err))
	}
	if c.Embedder.Enabled() {
		if err := c.Vector.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("vector: %v", err))
		}
	}
	if err := c.Markdown.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("markdown: %v", err))
	}
	if err := c.Pipeline.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("pipeline: %v", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server: %v", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("observability: %v", err))
	}
	if err := c.Logger.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logger: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
