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

	"github.com/kadirpekel/voicetree/pkg/observability"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// ReplayCmd rebuilds a tree from scratch by replaying a persisted
// transcript-history file (pkg/history's HistoryFilePath) through a fresh
// pipeline, writing the result to a separate output directory. This is
// for reproducing a tree after an agent-prompt or ranking change, without
// needing the original live transcript feed.
type ReplayCmd struct {
	History string `arg:"" help:"Path to a persisted transcript history file."`
	OutDir  string `name:"out-dir" help:"Output directory for the replayed tree (defaults to config markdown.output_dir + '.replay')."`
}

func (c *ReplayCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, ldr, err := loadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if ldr != nil {
		defer ldr.Close()
	}

	outDir := c.OutDir
	if outDir == "" {
		outDir = cfg.Markdown.OutputDir + ".replay"
	}
	cfg.Markdown.OutputDir = outDir
	cfg.Pipeline.HistoryFilePath = ""

	if _, err := os.Stat(c.History); err != nil {
		return fmt.Errorf("history file %s: %w", c.History, err)
	}

	mgr, err := observability.NewManager(&cfg.Observability)
	if err != nil {
		return fmt.Errorf("building observability manager: %w", err)
	}

	orch, err := buildOrchestrator(cfg, tree.New(), mgr, nil)
	if err != nil {
		return err
	}

	fragments, err := readFragments(c.History)
	if err != nil {
		return err
	}

	for i, frag := range fragments {
		if err := orch.ProcessFragment(ctx, frag); err != nil {
			return fmt.Errorf("replaying fragment %d: %w", i, err)
		}
	}

	slog.Info("replay complete", "fragments", len(fragments), "output_dir", outDir)
	return nil
}
