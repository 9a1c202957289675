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
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kadirpekel/voicetree/pkg/observability"
)

// IngestCmd processes a single transcript file (or stdin) in one batch —
// split into blank-line-separated fragments, run through the pipeline in
// order — then exits, leaving the markdown tree on disk.
type IngestCmd struct {
	Transcript string `arg:"" optional:"" help:"Transcript file path. Reads stdin if omitted."`
}

func (c *IngestCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, ldr, err := loadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if ldr != nil {
		defer ldr.Close()
	}

	mgr, err := observability.NewManager(&cfg.Observability)
	if err != nil {
		return fmt.Errorf("building observability manager: %w", err)
	}

	t, err := loadOrCreateTree(cfg.Markdown.OutputDir)
	if err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg, t, mgr, nil)
	if err != nil {
		return err
	}

	fragments, err := readFragments(c.Transcript)
	if err != nil {
		return err
	}

	for i, frag := range fragments {
		if err := orch.ProcessFragment(ctx, frag); err != nil {
			return fmt.Errorf("processing fragment %d: %w", i, err)
		}
	}

	slog.Info("ingest complete", "fragments", len(fragments), "output_dir", cfg.Markdown.OutputDir)
	return nil
}

// readFragments reads path (or stdin, if path is empty) and splits it into
// fragments on blank lines, trimming surrounding whitespace and dropping
// empty fragments.
func readFragments(path string) ([]string, error) {
	var r *os.File
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening transcript %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var fragments []string
	var current strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				fragments = append(fragments, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	if current.Len() > 0 {
		fragments = append(fragments, current.String())
	}
	return fragments, nil
}
