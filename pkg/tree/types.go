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

// Package tree is the in-memory knowledge graph: a forest of Node records
// keyed by integer id, mutated only through the typed Action vocabulary in
// pkg/treeapply.
//
// Nodes are stored in a flat map rather than linked by pointer, giving the
// graph an arena-style representation keyed by integer id. Edges are
// represented twice — parent_id on the child and an entry in Children on the
// parent — and every mutation keeps both sides in sync so the forest stays
// a valid, single-parent tree after any individual action.
package tree

import "time"

// NodeID uniquely and permanently identifies a node. Ids are assigned by
// the Tree monotonically and are never reused, even once a node is
// hypothetically removed. The pipeline never deletes nodes.
type NodeID int64

// NoParent is the sentinel used in place of a nil *NodeID for orphan nodes.
const NoParent NodeID = 0

// Node is one vertex of the knowledge graph; it corresponds 1:1 to a
// markdown file written by pkg/markdown.
type Node struct {
	ID      NodeID
	Title   string
	Content string
	Summary string

	// ParentID is the zero value (NoParent) when this node is a root.
	ParentID  NodeID
	HasParent bool

	// Children preserves insertion order.
	Children []NodeID

	// Relationships maps another node's id to the relationship phrase
	// describing the edge from this node's perspective. For a child node
	// this holds a single entry keyed by its parent's id.
	Relationships map[NodeID]string

	CreatedAt  time.Time
	ModifiedAt time.Time

	NumAppends int

	// TranscriptHistory concatenates the source transcript fragments that
	// produced this node's content, separated by "... ".
	TranscriptHistory string

	// Tags and Color are set out-of-band by maintenance passes, never by
	// the hot path.
	Tags  []string
	Color string

	// Filename is assigned once, on creation, and is stable for the life of
	// the node.
	Filename string
}

// Clone returns a deep copy of the node so callers can mutate it without
// touching the tree (used by Tree.Snapshot and the context selector).
func (n *Node) Clone() *Node {
	clone := *n
	if n.Children != nil {
		clone.Children = append([]NodeID(nil), n.Children...)
	}
	if n.Relationships != nil {
		clone.Relationships = make(map[NodeID]string, len(n.Relationships))
		for k, v := range n.Relationships {
			clone.Relationships[k] = v
		}
	}
	if n.Tags != nil {
		clone.Tags = append([]string(nil), n.Tags...)
	}
	return &clone
}

// Relationship describes a 1-hop neighbour relative to some node.
type Relationship string

const (
	RelationParent  Relationship = "parent"
	RelationChild   Relationship = "child"
	RelationSibling Relationship = "sibling"
)

// Neighbor is a summary of one 1-hop neighbour, as returned by
// Tree.GetNeighbors.
type Neighbor struct {
	ID           NodeID
	Name         string
	Summary      string
	Relationship Relationship
	// Phrase is the relationship phrase recorded on the edge, when one
	// exists (parent/child edges only; siblings have none).
	Phrase string
}
