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

// Package optimizer implements the phase-2 single-abstraction optimiser:
// for one recently-mutated node it judges whether the node still
// represents one coherent idea, and if not emits corrective actions that
// rewrite it and/or split out sub-ideas into new children.
package optimizer

import (
	"context"
	"fmt"

	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/treeapply"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// Agent runs one LLM call per invocation, judging a single node.
type Agent struct {
	client llm.Client
}

// New returns an Agent backed by client.
func New(client llm.Client) *Agent {
	return &Agent{client: client}
}

type splitChild struct {
	Name         string `json:"name" jsonschema:"required"`
	Content      string `json:"content" jsonschema:"required"`
	Summary      string `json:"summary" jsonschema:"required"`
	Relationship string `json:"relationship,omitempty"`
}

type optimizeResponse struct {
	// NeedsUpdate signals the node itself should be rewritten; when false,
	// NewContent/NewSummary are ignored (policy O3: empty output is valid).
	NeedsUpdate bool         `json:"needs_update" jsonschema:"required"`
	NewContent  string       `json:"new_content,omitempty"`
	NewSummary  string       `json:"new_summary,omitempty"`
	Splits      []splitChild `json:"splits" jsonschema:"required"`
}

// optimizeSchema is generated from optimizeResponse's struct tags so the
// prompt schema and the decoding struct can never drift apart.
var optimizeSchema = llm.MustSchemaFor[optimizeResponse]()

const systemPrompt = `You judge whether a single knowledge-tree node still represents one
coherent abstraction. You are shown the node's title, content, summary, and its
immediate neighbours (parent, children, siblings).

If the node is fine as-is, return needs_update=false and an empty splits array.

If the node has drifted to cover more than one idea, you may:
- rewrite it for clarity (needs_update=true, new_content, new_summary), and/or
- split out one or more sub-ideas as new children (splits), each with its own
  name/content/summary and a relationship phrase describing the edge from the
  child's perspective (e.g. "example of"). When you split material out, also
  rewrite the parent's new_content to remove that material so it isn't
  duplicated.

Respond with JSON only, matching the provided schema exactly.`

// Run judges the node identified by id within snapshot (expected to be a
// deep copy the caller owns — policy O2) and returns zero or more actions.
// An empty, nil slice is a valid "no change required" result (policy O3).
func (a *Agent) Run(ctx context.Context, id tree.NodeID, snapshot *tree.Tree) ([]treeapply.Action, error) {
	node, ok := snapshot.Get(id)
	if !ok {
		return nil, fmt.Errorf("optimizer: unknown node %d", id)
	}

	prompt := formatNodeForJudgment(node, snapshot.GetNeighbors(id))

	var resp optimizeResponse
	req := llm.Request{
		System:     systemPrompt,
		Prompt:     prompt,
		JSONSchema: optimizeSchema,
		MaxTokens:  2048,
	}
	if err := llm.CompleteJSON(ctx, a.client, req, &resp); err != nil {
		return nil, fmt.Errorf("optimizer: judgment call: %w", err)
	}

	if !resp.NeedsUpdate && len(resp.Splits) == 0 {
		return nil, nil
	}

	var actions []treeapply.Action
	if resp.NeedsUpdate {
		actions = append(actions, treeapply.Update(id, resp.NewContent, resp.NewSummary))
	}
	// Policy O4: every split's parent is the node being optimised, never a
	// cross-edge to some other node.
	for _, split := range resp.Splits {
		actions = append(actions, treeapply.CreateChild(id, split.Name, split.Content, split.Summary, split.Relationship))
	}
	return actions, nil
}

func formatNodeForJudgment(n *tree.Node, neighbors []tree.Neighbor) string {
	out := fmt.Sprintf("Node ID: %d\nTitle: %s\nContent: %s\nSummary: %s\n", n.ID, n.Title, n.Content, n.Summary)
	if len(neighbors) == 0 {
		return out + "\nNeighbours: (none)"
	}
	out += "\nNeighbours:"
	for _, nb := range neighbors {
		out += fmt.Sprintf("\n- [%s] %s (id %d): %s", nb.Relationship, nb.Name, nb.ID, nb.Summary)
	}
	return out
}
