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

// Package orphanconnect implements the periodic maintenance pass that
// clusters unrelated root nodes under shared parents, keeping the tree
// from accumulating many disconnected tiny roots over a long session. The
// orchestrator triggers it on a node-mutation counter: when the counter
// reaches its interval, the pass runs synchronously at the end of that
// ProcessFragment call, after the cycle's markdown emit, so the call does
// not return until the pass has finished.
package orphanconnect

import (
	"context"
	"fmt"
	"sort"

	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// MaxRoots bounds how many root nodes are considered per call, so a very
// long session doesn't blow up the prompt.
const MaxRoots = 30

// Agent runs one LLM call per invocation, proposing groupings over the
// current root nodes.
type Agent struct {
	client llm.Client
}

// New returns an Agent backed by client.
func New(client llm.Client) *Agent {
	return &Agent{client: client}
}

type group struct {
	Name          string  `json:"name" jsonschema:"required"`
	Summary       string  `json:"summary" jsonschema:"required"`
	MemberNodeIDs []int64 `json:"member_node_ids" jsonschema:"required"`
}

type groupingResponse struct {
	Groups []group `json:"groups" jsonschema:"required"`
}

// groupingSchema is generated from groupingResponse's struct tags so the
// prompt schema and the decoding struct can never drift apart.
var groupingSchema = llm.MustSchemaFor[groupingResponse]()

const systemPrompt = `You are shown a list of currently-disconnected root topics in a knowledge
tree. Propose zero or more groupings of root nodes that share an obvious common
parent topic. Each group becomes a new parent node over its listed members. A
root node may be left out of every group if it doesn't clearly belong anywhere
yet - do not force groupings. Each member_node_ids entry must be one of the
node ids shown below.

Respond with JSON only, matching the provided schema exactly.`

// Grouping is one proposed cluster, resolved against the current tree.
type Grouping struct {
	Name    string
	Summary string
	Members []tree.NodeID
}

// Run asks the LLM to cluster the tree's current root nodes (bounded to
// MaxRoots, oldest-id-first) and returns the proposed groupings with any
// member ids that no longer exist as roots filtered out.
func (a *Agent) Run(ctx context.Context, snapshot *tree.Tree) ([]Grouping, error) {
	roots := snapshot.Roots()
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	if len(roots) > MaxRoots {
		roots = roots[:MaxRoots]
	}
	if len(roots) < 2 {
		return nil, nil
	}

	rootSet := make(map[tree.NodeID]struct{}, len(roots))
	prompt := "Root topics:\n"
	for _, id := range roots {
		rootSet[id] = struct{}{}
		n, ok := snapshot.Get(id)
		if !ok {
			continue
		}
		prompt += fmt.Sprintf("- id %d: %s - %s\n", n.ID, n.Title, n.Summary)
	}

	var resp groupingResponse
	req := llm.Request{
		System:     systemPrompt,
		Prompt:     prompt,
		JSONSchema: groupingSchema,
		MaxTokens:  1024,
	}
	if err := llm.CompleteJSON(ctx, a.client, req, &resp); err != nil {
		return nil, fmt.Errorf("orphanconnect: grouping call: %w", err)
	}

	groupings := make([]Grouping, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		var members []tree.NodeID
		for _, raw := range g.MemberNodeIDs {
			id := tree.NodeID(raw)
			if _, ok := rootSet[id]; ok {
				members = append(members, id)
			}
		}
		if len(members) < 2 {
			continue
		}
		groupings = append(groupings, Grouping{Name: g.Name, Summary: g.Summary, Members: members})
	}
	return groupings, nil
}

// Apply creates one new orphan parent per grouping and adopts each member
// under it, via the tree's adoption path rather than treeapply's
// vocabulary (which has no explicit "reparent" action — see DESIGN.md).
func Apply(t *tree.Tree, groupings []Grouping) []tree.NodeID {
	var created []tree.NodeID
	for _, g := range groupings {
		parentID := t.CreateNode(g.Name, 0, false, "", g.Summary, "")
		for _, member := range g.Members {
			if err := t.AdoptOrphan(member, parentID, "sub-topic of"); err != nil {
				continue
			}
		}
		created = append(created, parentID)
	}
	return created
}
