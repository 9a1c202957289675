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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/voicetree/pkg/observability"
	"github.com/kadirpekel/voicetree/pkg/pipeline"
	"github.com/kadirpekel/voicetree/pkg/session"
)

// ServeCmd runs the long-lived HTTP server that accepts streamed
// transcript fragments and keeps the markdown tree in sync.
type ServeCmd struct {
	Port int `help:"Override the configured server port (0 = use config)."`
}

// sessionRecorderFunc adapts a closure to pipeline.SessionRecorder, so a
// single *session.Manager run can be passed in without pipeline importing
// pkg/session itself.
type sessionRecorderFunc func(kind string)

func (f sessionRecorderFunc) RecordMutation(kind string) { f(kind) }

type fragmentRequest struct {
	Text string `json:"text"`
}

type fragmentResponse struct {
	BufferLen int `json:"buffer_len"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	cfg, ldr, err := loadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if ldr != nil {
		defer ldr.Close()
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	mgr, err := observability.NewManager(&cfg.Observability)
	if err != nil {
		return fmt.Errorf("building observability manager: %w", err)
	}

	t, err := loadOrCreateTree(cfg.Markdown.OutputDir)
	if err != nil {
		return err
	}

	sessions := session.NewManager()
	runID := sessions.Start(ctx, cfg.Markdown.OutputDir)

	orch, err := buildOrchestrator(cfg, t, mgr, sessionRecorderFunc(func(kind string) {
		sessions.RecordMutation(runID, kind)
	}))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(observability.HTTPMiddleware(mgr.Recorder()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if mgr.MetricsEnabled() {
		r.Get(mgr.MetricsEndpoint(), mgr.MetricsHandler().ServeHTTP)
	}

	r.Post("/fragment", fragmentHandler(orch, sessions, runID))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("voicetree server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	if final, err := sessions.End(runID); err == nil {
		slog.Info("session ended", "run_id", runID, "fragments", final.FragmentsProcessed, "mutations", final.NodeMutations)
	}
	return nil
}

func fragmentHandler(orch *pipeline.Orchestrator, sessions *session.Manager, runID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fragmentRequest
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		if err := orch.ProcessFragment(r.Context(), req.Text); err != nil {
			slog.Error("process_fragment failed", "error", err)
			http.Error(w, "failed to process fragment", http.StatusInternalServerError)
			return
		}
		sessions.RecordFragment(runID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fragmentResponse{BufferLen: orch.BufferLen()})
	}
}
