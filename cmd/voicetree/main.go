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

// Command voicetree turns a streaming speech transcript into an
// incrementally maintained markdown knowledge tree.
//
// Usage:
//
//	voicetree serve --config config.yaml
//	voicetree ingest --config config.yaml transcript.txt
//	voicetree replay --config config.yaml history.txt
//	voicetree connect-orphans --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/voicetree/pkg/config"
	"github.com/kadirpekel/voicetree/pkg/logger"
)

// CLI defines voicetree's command-line surface.
type CLI struct {
	ConnectOrphans ConnectOrphansCmd `cmd:"" name:"connect-orphans" help:"Run one Connect-Orphans maintenance pass over an existing tree."`
	Ingest         IngestCmd         `cmd:"" help:"Process a transcript file in one batch and exit."`
	Replay         ReplayCmd         `cmd:"" help:"Rebuild a tree from a persisted transcript history file."`
	Serve          ServeCmd          `cmd:"" help:"Run the long-lived fragment-ingestion HTTP server."`

	Config string `short:"c" help:"Path to config file." type:"path"`
}

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("voicetree"),
		kong.Description("VoiceTree - live transcript to knowledge tree"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&cli); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the config file named by --config,
// initializing the logger from its Logger section before returning.
func loadConfig(ctx context.Context, path string) (*config.Config, *config.Loader, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}

	cfg, ldr, err := config.LoadConfigFile(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.Logger.File != "" {
		f, _, err := logger.OpenLogFile(cfg.Logger.File)
		if err != nil {
			slog.Warn("failed to open log file, falling back to stderr", "path", cfg.Logger.File, "error", err)
		} else {
			out = f
		}
	}
	logger.Init(level, out, cfg.Logger.Format)

	return cfg, ldr, nil
}
