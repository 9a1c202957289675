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

// Package pipeline wires the buffer, history, context selector, agents, and
// applier together into the single entry point that drives a transcript
// fragment all the way to tree mutations: Orchestrator.ProcessFragment.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	appendagent "github.com/kadirpekel/voicetree/pkg/agents/append"
	"github.com/kadirpekel/voicetree/pkg/agents/optimizer"
	"github.com/kadirpekel/voicetree/pkg/agents/orphanconnect"
	"github.com/kadirpekel/voicetree/pkg/buffer"
	voicecontext "github.com/kadirpekel/voicetree/pkg/context"
	"github.com/kadirpekel/voicetree/pkg/history"
	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/observability"
	"github.com/kadirpekel/voicetree/pkg/treeapply"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// Config holds the environment-driven tuning knobs. Zero values fall back
// to the documented defaults in New.
type Config struct {
	// BufferSizeThreshold is forwarded to buffer.New.
	BufferSizeThreshold int
	// TranscriptHistoryMultiplier sets how many multiples of
	// BufferSizeThreshold the history manager retains/exposes.
	TranscriptHistoryMultiplier int
	// MaxNodesForLLMContext bounds how many candidate nodes the context
	// selector surfaces to the append agent per cycle.
	MaxNodesForLLMContext int
	// OrphanConnectionInterval is how many mutated node-ids accumulate
	// between Connect-Orphans maintenance passes. A value <= 0 falls back
	// to defaultOrphanConnectionInterval.
	OrphanConnectionInterval int
	// HistoryFilePath optionally persists history to disk; empty keeps it
	// in-memory only.
	HistoryFilePath string
	// Recorder receives per-cycle metrics (fragment duration, node mutation
	// counts). A nil Recorder falls back to observability.NoopMetrics{}.
	Recorder observability.Recorder
	// SessionRecorder optionally tallies mutation counts against a single
	// continuous run (see pkg/session.Manager). A nil SessionRecorder
	// disables this; only cmd/voicetree's serve subcommand has a run to
	// tally against.
	SessionRecorder SessionRecorder
}

// SessionRecorder is the optional hook for tallying per-run mutation
// counts. pkg/session.Manager.RecordMutation(id, kind) satisfies this
// shape once adapted to a single run id - see cmd/voicetree/serve.go's
// sessionRecorderFunc.
type SessionRecorder interface {
	RecordMutation(kind string)
}

const (
	defaultTranscriptHistoryMultiplier = 3
	defaultMaxNodesForLLMContext       = 20
	defaultOrphanConnectionInterval    = 50
)

// MarkdownWriter is the downstream collaborator that renders mutated nodes
// to disk. Implemented by pkg/markdown; kept as an interface here so the
// orchestrator doesn't import it directly and tests can fake it.
type MarkdownWriter interface {
	WriteNodes(ctx context.Context, ids map[tree.NodeID]struct{}, snapshot *tree.Tree) error
}

type noopWriter struct{}

func (noopWriter) WriteNodes(context.Context, map[tree.NodeID]struct{}, *tree.Tree) error { return nil }

// Indexer is the optional hook that keeps a vector index current as nodes
// are mutated, so a configured VectorBackend has something to search. A
// nil Indexer disables indexing entirely, regardless of whether a
// VectorBackend is also configured - the two are wired together by the
// same caller (see cmd/voicetree's buildOrchestrator) but kept as
// separate seams here since a VectorBackend could in principle be
// read-only.
type Indexer interface {
	Upsert(ctx context.Context, id tree.NodeID, text string) error
}

// Orchestrator drives process_fragment: buffer -> append agent -> orphan
// merge -> apply -> per-node optimiser -> apply -> history update ->
// markdown emit -> maintenance trigger. It is not safe for concurrent use;
// the scheduling model is strictly one ProcessFragment call at a time.
type Orchestrator struct {
	cfg Config

	tree     *tree.Tree
	bufMgr   *buffer.Manager
	histMgr  *history.Manager
	selector *voicecontext.Selector
	applier  *treeapply.Applier

	appendAgent  *appendagent.Agent
	optimizerAgt *optimizer.Agent
	orphanAgent  *orphanconnect.Agent
	markdown     MarkdownWriter
	indexer      Indexer

	mutationsSinceMaintenance int
}

// New returns an Orchestrator over t, backed by client for every LLM call.
// A nil vector augments nothing (context.Selector runs TF-IDF-only). A nil
// indexer disables vector-index upkeep (it has nothing to do if vector is
// also nil, but the two are independent seams). A nil writer is replaced
// with a no-op (useful for tests that only care about tree state).
func New(t *tree.Tree, client llm.Client, vector voicecontext.VectorBackend, indexer Indexer, writer MarkdownWriter, cfg Config) (*Orchestrator, error) {
	if cfg.TranscriptHistoryMultiplier <= 0 {
		cfg.TranscriptHistoryMultiplier = defaultTranscriptHistoryMultiplier
	}
	if cfg.MaxNodesForLLMContext <= 0 {
		cfg.MaxNodesForLLMContext = defaultMaxNodesForLLMContext
	}
	if cfg.OrphanConnectionInterval <= 0 {
		cfg.OrphanConnectionInterval = defaultOrphanConnectionInterval
	}
	if writer == nil {
		writer = noopWriter{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = observability.NoopMetrics{}
	}

	histMgr, err := history.New(cfg.HistoryFilePath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building history manager: %w", err)
	}

	return &Orchestrator{
		cfg:          cfg,
		tree:         t,
		bufMgr:       buffer.New(cfg.BufferSizeThreshold),
		histMgr:      histMgr,
		selector:     voicecontext.New(t, vector),
		applier:      treeapply.New(t),
		appendAgent:  appendagent.New(client),
		optimizerAgt: optimizer.New(client),
		orphanAgent:  orphanconnect.New(client),
		markdown:     writer,
		indexer:      indexer,
	}, nil
}

// BufferLen reports the current raw (unflushed) buffer length, for
// diagnostics and metrics.
func (o *Orchestrator) BufferLen() int { return o.bufMgr.Len() }

// historyMaxLength is the character budget for both history.Get and
// history.Append, derived from BUFFER_SIZE_THRESHOLD *
// TRANSCRIPT_HISTORY_MULTIPLIER.
func (o *Orchestrator) historyMaxLength() int {
	threshold := o.cfg.BufferSizeThreshold
	if threshold <= 0 {
		threshold = buffer.DefaultSizeThreshold
	}
	return threshold * o.cfg.TranscriptHistoryMultiplier
}

// ProcessFragment is the public entry point. Empty or whitespace-only
// fragments are ignored. It runs one buffer/append/optimise/apply cycle to
// completion (or returns an error) before any subsequent call may begin;
// callers are responsible for not invoking it concurrently.
func (o *Orchestrator) ProcessFragment(ctx context.Context, fragment string) error {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}

	start := time.Now()
	var cycleErr error
	defer func() { o.cfg.Recorder.RecordFragmentProcessed(time.Since(start), cycleErr) }()

	// 1. buffer_manager.add(fragment)
	o.bufMgr.Add(fragment)

	// 2. If not is_ready(), return.
	if !o.bufMgr.IsReady() {
		return nil
	}

	// 3. text = buffer_manager.flush()
	text := o.bufMgr.Flush()

	// 4. history = history_manager.get()
	histText := o.histMgr.Get(o.historyMaxLength())

	// 5. Phase 1: result = append_agent.run(text, tree, history)
	candidates := o.selector.Select(text, o.cfg.MaxNodesForLLMContext)
	result, err := o.appendAgent.Run(ctx, text, histText, candidates)
	if err != nil {
		cycleErr = fmt.Errorf("pipeline: append agent: %w", err)
		return cycleErr
	}

	// 6. Orphan merge pre-pass.
	actions := mergeOrphanCreates(result.Actions)

	// 7. Apply phase-1 actions.
	mutated := o.applier.Apply(actions)
	finalActions := append([]treeapply.Action{}, actions...)
	o.recordMutationKinds(actions)

	// 8. Phase 2: for each mutated id (ascending), run the optimiser and
	// apply its actions immediately so later optimiser calls in the same
	// cycle see earlier rewrites.
	ids := make([]tree.NodeID, 0, len(mutated))
	for id := range mutated {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	allMutated := make(map[tree.NodeID]struct{}, len(mutated))
	for id := range mutated {
		allMutated[id] = struct{}{}
	}

	for _, nid := range ids {
		snapshot := o.tree.Snapshot()
		optActions, err := o.optimizerAgt.Run(ctx, nid, snapshot)
		if err != nil {
			cycleErr = fmt.Errorf("pipeline: optimiser on node %d: %w", nid, err)
			return cycleErr
		}
		if len(optActions) == 0 {
			continue
		}
		optMutated := o.applier.Apply(optActions)
		for id := range optMutated {
			allMutated[id] = struct{}{}
		}
		finalActions = append(finalActions, optActions...)
		o.recordMutationKinds(optActions)
	}

	// 8b. Keep the vector index current for every node touched this cycle.
	o.indexMutatedNodes(ctx, allMutated)

	// 9. Update history.
	if err := o.histMgr.Append(result.CompletedText, o.historyMaxLength()); err != nil {
		slog.Error("pipeline: history append failed", "error", err)
	}

	// 10. Reinject any incomplete trailing text.
	o.bufMgr.Reinject(incompleteTail(result.Segments))

	// 11. Emit final_actions and the full set of mutated ids. The markdown
	// writer re-renders nodes from current tree state rather than replaying
	// individual actions, so final_actions is only surfaced for diagnostics.
	slog.Debug("pipeline: cycle applied actions", "action_count", len(finalActions), "mutated_count", len(allMutated))
	if err := o.markdown.WriteNodes(ctx, allMutated, o.tree); err != nil {
		slog.Error("pipeline: markdown write failed", "error", err)
	}

	o.mutationsSinceMaintenance += len(allMutated)
	o.maybeRunMaintenance(ctx)

	// 12. Return.
	return nil
}

// indexMutatedNodes upserts every mutated node's current title/summary/
// content into the configured Indexer, so a VectorBackend reading the same
// collection reflects this cycle's changes on the very next Select call.
// A nil indexer (the default) makes this a no-op.
func (o *Orchestrator) indexMutatedNodes(ctx context.Context, ids map[tree.NodeID]struct{}) {
	if o.indexer == nil || len(ids) == 0 {
		return
	}
	snapshot := o.tree.Snapshot()
	for id := range ids {
		n, ok := snapshot.Get(id)
		if !ok {
			continue
		}
		if err := o.indexer.Upsert(ctx, id, nodeIndexText(n)); err != nil {
			slog.Warn("pipeline: vector index upsert failed", "node_id", id, "error", err)
		}
	}
}

// nodeIndexText is the text embedded for a node's vector entry.
func nodeIndexText(n *tree.Node) string {
	return n.Title + "\n" + n.Summary + "\n" + n.Content
}

// maybeRunMaintenance runs the Connect-Orphans pass and resets the counter
// once enough nodes have been mutated since the last pass. New replaces a
// non-positive OrphanConnectionInterval with the default, so the pass
// always has a positive interval.
func (o *Orchestrator) maybeRunMaintenance(ctx context.Context) {
	if o.cfg.OrphanConnectionInterval <= 0 {
		return
	}
	if o.mutationsSinceMaintenance < o.cfg.OrphanConnectionInterval {
		return
	}
	o.mutationsSinceMaintenance = 0

	groupings, err := o.orphanAgent.Run(ctx, o.tree.Snapshot())
	if err != nil {
		slog.Error("pipeline: connect-orphans pass failed", "error", err)
		return
	}
	if len(groupings) == 0 {
		return
	}
	created := orphanconnect.Apply(o.tree, groupings)
	ids := make(map[tree.NodeID]struct{}, len(created))
	for _, id := range created {
		ids[id] = struct{}{}
	}
	if err := o.markdown.WriteNodes(ctx, ids, o.tree); err != nil {
		slog.Error("pipeline: markdown write after connect-orphans failed", "error", err)
	}
}

// recordMutationKinds reports one metric sample per action actually applied,
// labelled by its lowercased Kind ("append"/"create"/"update").
func (o *Orchestrator) recordMutationKinds(actions []treeapply.Action) {
	for _, act := range actions {
		kind := strings.ToLower(string(act.Kind))
		o.cfg.Recorder.RecordNodeMutation(kind)
		if o.cfg.SessionRecorder != nil {
			o.cfg.SessionRecorder.RecordMutation(kind)
		}
	}
}

// mergeOrphanCreates collapses every parentless CREATE action in actions
// into a single CREATE, joining names with " & " and contents with a
// space, so one append-agent cycle never produces more than one new root.
// APPEND, UPDATE, and parented CREATE actions pass through unchanged and
// keep their relative order; the merged orphan (if any) is appended last.
func mergeOrphanCreates(actions []treeapply.Action) []treeapply.Action {
	var rest []treeapply.Action
	var orphanNames, orphanContents, orphanSummaries []string

	for _, act := range actions {
		if act.Kind == treeapply.KindCreate && !act.HasParent {
			orphanNames = append(orphanNames, act.NewNodeName)
			orphanContents = append(orphanContents, act.Content)
			orphanSummaries = append(orphanSummaries, act.Summary)
			continue
		}
		rest = append(rest, act)
	}

	switch len(orphanNames) {
	case 0:
		return rest
	case 1:
		return append(rest, treeapply.CreateOrphan(orphanNames[0], orphanContents[0], orphanSummaries[0]))
	default:
		merged := treeapply.CreateOrphan(
			strings.Join(orphanNames, " & "),
			strings.Join(orphanContents, " "),
			strings.Join(orphanSummaries, " "),
		)
		return append(rest, merged)
	}
}

// incompleteTail concatenates the text of every trailing incomplete
// segment (there should be at most one per policy, but this concatenates
// defensively rather than assuming it).
func incompleteTail(segments []appendagent.SegmentModel) string {
	var parts []string
	for _, seg := range segments {
		if !seg.IsComplete {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}
