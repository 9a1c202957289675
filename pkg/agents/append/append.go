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

// Package append implements the phase-1 placement agent: it splits a
// flushed transcript buffer into atomic segments, then for each complete
// segment decides whether to append it to an existing node or create a
// new one. Two sequential LLM calls; no fan-out, no tool use.
package append

import (
	"context"
	"fmt"
	"strings"

	voicecontext "github.com/kadirpekel/voicetree/pkg/context"
	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/treeapply"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// SegmentModel is one atomic idea extracted from the transcript buffer.
// IsComplete is false only for a trailing segment the model judged
// unfinished; such a segment is never acted on in the same cycle.
type SegmentModel struct {
	Reasoning  string `json:"reasoning,omitempty" jsonschema:"description=Why this text forms one atomic idea"`
	Text       string `json:"text" jsonschema:"required"`
	IsComplete bool   `json:"is_complete" jsonschema:"required"`
}

// Result is everything the orchestrator needs out of one Append Agent run.
type Result struct {
	// Actions holds one APPEND or CREATE per complete segment, in segment
	// order (policy P1).
	Actions []treeapply.Action
	// Segments holds every segment the segmentation call produced,
	// complete or not (policy P3: the orchestrator reinjects the
	// trailing incomplete segment's text into the buffer).
	Segments []SegmentModel
	// CompletedText is the concatenation of every complete segment's
	// text, used by the orchestrator to extend the history manager.
	CompletedText string
}

// Agent runs the two-call segmentation+placement workflow against an LLM.
type Agent struct {
	client llm.Client
}

// New returns an Agent backed by client.
func New(client llm.Client) *Agent {
	return &Agent{client: client}
}

type segmentationResponse struct {
	Segments []SegmentModel `json:"segments" jsonschema:"required"`
}

// segmentationSchema is generated from segmentationResponse's struct tags so
// the prompt schema and the decoding struct can never drift apart.
var segmentationSchema = llm.MustSchemaFor[segmentationResponse]()

const segmentationSystemPrompt = `You split a raw speech transcript fragment into an ordered list of atomic ideas.
Each idea becomes one segment. A segment is "complete" unless it is the trailing
segment and appears to be cut off mid-thought - in that case mark it incomplete
and it will be carried over to the next fragment instead of acted on now.
Respond with JSON only, matching the provided schema exactly.`

// placementAction discriminates APPEND vs CREATE for one segment's
// placement decision.
type placementAction struct {
	Action       string `json:"action" jsonschema:"required,enum=APPEND,enum=CREATE"`
	TargetNodeID *int64 `json:"target_node_id,omitempty"`
	NewNodeName  string `json:"new_node_name,omitempty"`
	Summary      string `json:"summary,omitempty"`
	Content      string `json:"content,omitempty"`
	ParentNodeID *int64 `json:"parent_node_id,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// placementSchema is generated from placementAction's struct tags so the
// prompt schema and the decoding struct can never drift apart.
var placementSchema = llm.MustSchemaFor[placementAction]()

const placementSystemPromptTemplate = `You decide where one idea belongs in an existing knowledge tree.
You are shown a set of candidate nodes already in the tree. Decide exactly one of:
- APPEND: the idea belongs to one of the shown nodes - return its target_node_id.
- CREATE: the idea is new - return new_node_name, summary, content, and optionally
  parent_node_id if it is a sub-topic of one of the shown nodes (omit/null for a
  standalone root idea), plus relationship describing the edge from the child's
  perspective (e.g. "example of", "sub-topic of").

Candidate nodes:
%s

Respond with JSON only, matching the provided schema exactly.`

// Run executes the segmentation call, then one placement call per complete
// segment, and returns the accumulated Result.
func (a *Agent) Run(ctx context.Context, transcriptText, transcriptHistory string, candidates []voicecontext.Selected) (*Result, error) {
	var segResp segmentationResponse
	segReq := llm.Request{
		System:     segmentationSystemPrompt,
		Prompt:     fmt.Sprintf("Transcript history so far:\n%s\n\nNew fragment to segment:\n%s", transcriptHistory, transcriptText),
		JSONSchema: segmentationSchema,
		MaxTokens:  2048,
	}
	if err := llm.CompleteJSON(ctx, a.client, segReq, &segResp); err != nil {
		return nil, fmt.Errorf("append: segmentation call: %w", err)
	}

	candidateBlock := voicecontext.FormatForPrompt(candidates)
	if candidateBlock == "" {
		candidateBlock = "(no existing nodes yet)"
	}

	var actions []treeapply.Action
	var completed []string

	for _, seg := range segResp.Segments {
		if !seg.IsComplete {
			continue
		}

		var placement placementAction
		placeReq := llm.Request{
			System:     fmt.Sprintf(placementSystemPromptTemplate, candidateBlock),
			Prompt:     seg.Text,
			JSONSchema: placementSchema,
			MaxTokens:  1024,
		}
		if err := llm.CompleteJSON(ctx, a.client, placeReq, &placement); err != nil {
			return nil, fmt.Errorf("append: placement call: %w", err)
		}

		action, err := toAction(placement, seg.Text, candidates)
		if err != nil {
			return nil, fmt.Errorf("append: %w", err)
		}
		actions = append(actions, action)
		completed = append(completed, seg.Text)
	}

	return &Result{
		Actions:       actions,
		Segments:      segResp.Segments,
		CompletedText: strings.Join(completed, " "),
	}, nil
}

// toAction converts one placement decision into a treeapply.Action.
// Content on a CREATE is the verbatim segment text when the model left
// Content empty (policy P4 — rewriting is the optimiser's job, not ours).
//
// An APPEND's target_node_id must refer to a node shown in candidates, the
// context projection the model was actually given (policy P2); a
// hallucinated or stale id is demoted to a CREATE-orphan carrying the
// segment text verbatim, rather than applied against a node the model
// never saw.
func toAction(p placementAction, segmentText string, candidates []voicecontext.Selected) (treeapply.Action, error) {
	switch strings.ToUpper(p.Action) {
	case "APPEND":
		if p.TargetNodeID == nil {
			return treeapply.Action{}, fmt.Errorf("APPEND placement missing target_node_id")
		}
		target := tree.NodeID(*p.TargetNodeID)
		if !inCandidates(target, candidates) {
			return treeapply.CreateOrphan(segmentText, segmentText, ""), nil
		}
		return treeapply.Append(target, segmentText, segmentText), nil
	case "CREATE":
		content := p.Content
		if content == "" {
			content = segmentText
		}
		name := p.NewNodeName
		if name == "" {
			name = segmentText
		}
		if p.ParentNodeID != nil {
			return treeapply.CreateChild(tree.NodeID(*p.ParentNodeID), name, content, p.Summary, p.Relationship), nil
		}
		return treeapply.CreateOrphan(name, content, p.Summary), nil
	default:
		return treeapply.Action{}, fmt.Errorf("unrecognized placement action %q", p.Action)
	}
}

// inCandidates reports whether id names one of the nodes shown to the model
// in the context projection.
func inCandidates(id tree.NodeID, candidates []voicecontext.Selected) bool {
	for _, c := range candidates {
		if c.Node.ID == id {
			return true
		}
	}
	return false
}
