// Package voicetree ingests a live speech transcript and incrementally
// maintains a knowledge graph: a forest of markdown nodes with typed
// parent/child edges that reflects the speaker's evolving mental model.
//
// # Quick Start
//
// Run the CLI against a config file:
//
//	voicetree serve --config voicetree.yaml
//
// Or drive the pipeline directly as a library:
//
//	orch, err := pipeline.New(tree.New(), llmClient, nil, nil, writer, pipeline.Config{})
//	err = orch.ProcessFragment(ctx, "the speaker's next sentence")
//
// # Architecture
//
// A rolling text buffer (pkg/buffer) accumulates fragments and flushes once a
// size threshold is crossed. Each flush drives a two-phase agent workflow
// (pkg/agents/append, pkg/agents/optimizer) that places new content into an
// in-memory forest (pkg/tree, pkg/treeapply) and then keeps any touched node
// to one coherent abstraction. A bounded, relevance-ranked projection of the
// graph (pkg/context) is fed back into every agent prompt so the LLM only
// ever sees what matters. The orchestrator (pkg/pipeline) wires these
// together and publishes mutated node ids to the markdown emitter
// (pkg/markdown), the durable store of record.
//
// # License
//
// Apache-2.0 - See LICENSE for details.
package voicetree
