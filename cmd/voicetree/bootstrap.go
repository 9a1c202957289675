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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kadirpekel/voicetree/pkg/config"
	voicecontext "github.com/kadirpekel/voicetree/pkg/context"
	"github.com/kadirpekel/voicetree/pkg/embedder"
	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/markdown"
	"github.com/kadirpekel/voicetree/pkg/observability"
	"github.com/kadirpekel/voicetree/pkg/pipeline"
	"github.com/kadirpekel/voicetree/pkg/tree"
	"github.com/kadirpekel/voicetree/pkg/vector"
)

// nodeVectorCollection is the chromem/qdrant collection node embeddings are
// stored under.
const nodeVectorCollection = "voicetree_nodes"

// buildVectorIndex constructs the embedder+vector-provider pair and wraps
// them in a single vector.Index satisfying both pipeline.Indexer (to keep
// the index current as nodes mutate) and context.VectorBackend (to rank
// against it). Returns nil, nil when cfg.Embedder is disabled, the default.
func buildVectorIndex(cfg *config.Config) (*vector.Index, error) {
	if !cfg.Embedder.Enabled() {
		return nil, nil
	}

	emb, err := embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
		APIKey:    cfg.Embedder.APIKey,
		Model:     cfg.Embedder.Model,
		Host:      cfg.Embedder.Host,
		Dimension: cfg.Embedder.Dimension,
		BatchSize: cfg.Embedder.BatchSize,
		Timeout:   cfg.Embedder.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("building embedder: %w", err)
	}

	provider, err := vector.NewProvider(&cfg.Vector)
	if err != nil {
		return nil, fmt.Errorf("building vector provider: %w", err)
	}

	return vector.NewIndex(emb, provider, nodeVectorCollection), nil
}

// indexCacheFilename is the SQLite node-index cache WriteNodes keeps next
// to its rendered markdown files, used to detect drift between what was
// last written and what's actually on disk (see markdown.IndexCache).
const indexCacheFilename = ".voicetree-index.db"

// toIDSet converts a slice of node ids into the set shape
// MarkdownWriter.WriteNodes expects.
func toIDSet(ids []tree.NodeID) map[tree.NodeID]struct{} {
	set := make(map[tree.NodeID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// loadOrCreateTree loads an existing markdown tree from dir, or starts a
// fresh empty one if dir doesn't exist yet.
func loadOrCreateTree(dir string) (*tree.Tree, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return tree.New(), nil
	}

	t, err := markdown.LoadTree(dir)
	if err != nil {
		return nil, fmt.Errorf("loading tree from %s: %w", dir, err)
	}
	return t, nil
}

// buildOrchestrator wires an LLM client, markdown writer, observability
// recorder, and (when cfg.Embedder is enabled) a vector index into a
// pipeline.Orchestrator over t, per cfg. With no embedder configured - the
// default - both the VectorBackend and Indexer seams stay nil and the
// context selector runs TF-IDF-only. sessionRecorder is nil for any caller
// that has no run to tally mutations against (ingest, replay).
func buildOrchestrator(cfg *config.Config, t *tree.Tree, mgr *observability.Manager, sessionRecorder pipeline.SessionRecorder) (*pipeline.Orchestrator, error) {
	client, err := llm.NewClient(llm.Config{
		Provider: string(cfg.LLM.Provider),
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("building llm client: %w", err)
	}

	writer := markdown.NewWriter(cfg.Markdown.OutputDir)
	if err := os.MkdirAll(cfg.Markdown.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating markdown output dir: %w", err)
	}
	if cache, err := markdown.OpenIndexCache(filepath.Join(cfg.Markdown.OutputDir, indexCacheFilename)); err != nil {
		slog.Warn("node index cache unavailable, continuing without it", "error", err)
	} else {
		writer.Cache = cache
	}

	idx, err := buildVectorIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("building vector index: %w", err)
	}
	// idx is a typed *vector.Index; only assign it to the interface-typed
	// parameters when non-nil; a typed nil boxed into an interface would
	// compare non-nil and panic on first use.
	var vectorBackend voicecontext.VectorBackend
	var indexer pipeline.Indexer
	if idx != nil {
		vectorBackend = idx
		indexer = idx
		slog.Debug("vector index enabled", "provider", cfg.Vector.Type, "model", cfg.Embedder.Model)
	}

	orch, err := pipeline.New(t, client, vectorBackend, indexer, writer, pipeline.Config{
		BufferSizeThreshold:         cfg.Pipeline.BufferSizeThreshold,
		TranscriptHistoryMultiplier: cfg.Pipeline.TranscriptHistoryMultiplier,
		MaxNodesForLLMContext:       cfg.Pipeline.MaxNodesForLLMContext,
		OrphanConnectionInterval:    cfg.Pipeline.OrphanConnectionInterval,
		HistoryFilePath:             cfg.Pipeline.HistoryFilePath,
		Recorder:                    mgr.Recorder(),
		SessionRecorder:             sessionRecorder,
	})
	if err != nil {
		return nil, fmt.Errorf("building orchestrator: %w", err)
	}

	slog.Debug("orchestrator ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model, "output_dir", cfg.Markdown.OutputDir)
	return orch, nil
}
