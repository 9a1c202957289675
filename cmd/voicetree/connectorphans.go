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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kadirpekel/voicetree/pkg/agents/orphanconnect"
	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/markdown"
)

// ConnectOrphansCmd runs one off-hot-path Connect-Orphans maintenance
// pass over an already-persisted tree, standalone from the normal
// fragment-processing cycle — useful after a long session to tidy up
// accumulated disconnected root nodes without waiting for the next
// OrphanConnectionInterval trigger.
type ConnectOrphansCmd struct{}

func (c *ConnectOrphansCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, ldr, err := loadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if ldr != nil {
		defer ldr.Close()
	}

	t, err := loadOrCreateTree(cfg.Markdown.OutputDir)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(llm.Config{
		Provider: string(cfg.LLM.Provider),
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("building llm client: %w", err)
	}

	agent := orphanconnect.New(client)
	groupings, err := agent.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("connect-orphans pass: %w", err)
	}
	if len(groupings) == 0 {
		slog.Info("connect-orphans: no groupings proposed")
		return nil
	}

	mutated := orphanconnect.Apply(t, groupings)
	writer := markdown.NewWriter(cfg.Markdown.OutputDir)
	if err := os.MkdirAll(cfg.Markdown.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating markdown output dir: %w", err)
	}
	if cache, err := markdown.OpenIndexCache(filepath.Join(cfg.Markdown.OutputDir, indexCacheFilename)); err != nil {
		slog.Warn("node index cache unavailable, continuing without it", "error", err)
	} else {
		writer.Cache = cache
		defer cache.Close()
	}
	if err := writer.WriteNodes(ctx, toIDSet(mutated), t); err != nil {
		return fmt.Errorf("writing tree: %w", err)
	}
	if writer.Cache != nil {
		if stale, err := writer.Cache.Stale(t); err != nil {
			slog.Warn("node index cache staleness check failed", "error", err)
		} else if len(stale) > 0 {
			slog.Warn("node index cache found stale entries, on-disk tree may have drifted", "filenames", stale)
		}
	}

	slog.Info("connect-orphans complete", "groupings", len(groupings), "mutated_nodes", len(mutated))
	return nil
}
