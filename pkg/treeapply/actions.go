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

// Package treeapply applies batches of typed Actions to a pkg/tree.Tree.
// Actions are represented as a tagged sum type dispatched on Kind, a
// discriminator field, rather than an interface hierarchy.
package treeapply

import "github.com/kadirpekel/voicetree/pkg/tree"

// Kind discriminates the three action variants.
type Kind string

const (
	KindAppend Kind = "APPEND"
	KindCreate Kind = "CREATE"
	KindUpdate Kind = "UPDATE"
)

// Action is a tagged union of APPEND/CREATE/UPDATE. Only the fields
// relevant to Kind are populated; callers should not read fields outside
// their variant.
type Action struct {
	Kind Kind

	// APPEND
	TargetNodeID tree.NodeID
	Content      string
	Transcript   string

	// CREATE
	HasParent     bool
	ParentNodeID  tree.NodeID
	NewNodeName   string
	Summary       string
	Relationship  string

	// UPDATE
	NodeID     tree.NodeID
	NewContent string
	NewSummary string
}

// Append returns an APPEND action targeting an existing node.
func Append(targetNodeID tree.NodeID, content, transcript string) Action {
	return Action{Kind: KindAppend, TargetNodeID: targetNodeID, Content: content, Transcript: transcript}
}

// CreateOrphan returns a CREATE action with no parent.
func CreateOrphan(name, content, summary string) Action {
	return Action{Kind: KindCreate, NewNodeName: name, Content: content, Summary: summary}
}

// CreateChild returns a CREATE action attached to parentID.
func CreateChild(parentID tree.NodeID, name, content, summary, relationship string) Action {
	return Action{
		Kind: KindCreate, HasParent: true, ParentNodeID: parentID,
		NewNodeName: name, Content: content, Summary: summary, Relationship: relationship,
	}
}

// Update returns an UPDATE action replacing a node's content and summary.
func Update(nodeID tree.NodeID, newContent, newSummary string) Action {
	return Action{Kind: KindUpdate, NodeID: nodeID, NewContent: newContent, NewSummary: newSummary}
}
