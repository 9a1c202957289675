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

package tree

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Tree is a mutable, thread-unsafe forest of Node records (single
// writer, the Applier). Callers needing concurrent readers should take a
// Snapshot.
type Tree struct {
	nodes      map[NodeID]*Node
	nextID     NodeID
	defaultRel string
}

// New returns an empty tree with the first assigned id equal to 1.
func New() *Tree {
	return &Tree{
		nodes:      make(map[NodeID]*Node),
		nextID:     1,
		defaultRel: "child of",
	}
}

// Len returns the number of nodes currently in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns the node for id, or (nil, false) if it does not exist. The
// returned pointer aliases tree state; callers must not mutate it directly
// except through Tree methods.
func (t *Tree) Get(id NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// All returns every node in the tree, in unspecified order. Callers that
// need determinism should sort by ID.
func (t *Tree) All() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	return out
}

// CreateNode validates the requested parent (degrading to an orphan and
// logging when it does not exist), assigns the next id, and
// attaches the node to its parent's children list. It returns the id of the
// new node.
//
// relationship is recorded only when the node is parented; it is ignored for
// orphan creates.
func (t *Tree) CreateNode(title string, parentID NodeID, hasParent bool, content, summary, relationship string) NodeID {
	if hasParent {
		if _, ok := t.nodes[parentID]; !ok {
			slog.Warn("tree: parent not found, creating orphan instead",
				"requested_parent", parentID, "title", title)
			hasParent = false
		}
	}

	id := t.nextID
	t.nextID++

	now := time.Now()
	n := &Node{
		ID:            id,
		Title:         title,
		Content:       content,
		Summary:       summary,
		ParentID:      parentID,
		HasParent:     hasParent,
		Children:      nil,
		Relationships: make(map[NodeID]string),
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	n.Filename = deterministicFilename(id, title)

	if hasParent {
		rel := relationship
		if rel == "" {
			rel = t.defaultRel
		}
		n.Relationships[parentID] = rel
		t.nodes[parentID].Children = append(t.nodes[parentID].Children, id)
	}

	t.nodes[id] = n
	return id
}

// CreateNodeStrict behaves like CreateNode but returns ErrInvalidParent
// instead of degrading to an orphan when hasParent is true and parentID does
// not exist. Used by callers that opt into strict placement semantics
// rather than the default graceful degrade-to-orphan behavior.
func (t *Tree) CreateNodeStrict(title string, parentID NodeID, hasParent bool, content, summary, relationship string) (NodeID, error) {
	if hasParent {
		if _, ok := t.nodes[parentID]; !ok {
			return 0, fmt.Errorf("%w: parent %d", ErrInvalidParent, parentID)
		}
	}
	return t.CreateNode(title, parentID, hasParent, content, summary, relationship), nil
}

// AppendContent appends content to node_id's content, joined by a newline,
// and increments num_appends. Summary is left unchanged. It
// returns ErrUnknownNode if the node does not exist.
func (t *Tree) AppendContent(id NodeID, content, transcript string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if n.Content == "" {
		n.Content = content
	} else {
		n.Content = n.Content + "\n" + content
	}
	if transcript != "" {
		n.TranscriptHistory += transcript + "... "
	}
	n.ModifiedAt = time.Now()
	n.NumAppends++
	return nil
}

// UpdateNode fully replaces a node's content and summary, unlike
// AppendContent which only adds to it. Returns ErrUnknownNode if the node
// does not exist.
func (t *Tree) UpdateNode(id NodeID, content, summary string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	n.Content = content
	n.Summary = summary
	n.ModifiedAt = time.Now()
	return nil
}

// AdoptOrphan reparents an existing orphan root onto a new parent, used by
// the connect-orphans maintenance pass (pkg/agents/orphanconnect). It is an
// error to adopt a node that already has a parent, or to adopt a
// non-existent node or parent.
func (t *Tree) AdoptOrphan(childID, parentID NodeID, relationship string) error {
	child, ok := t.nodes[childID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, childID)
	}
	if child.HasParent {
		return fmt.Errorf("tree: node %d already has a parent", childID)
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %d", ErrUnknownNode, parentID)
	}
	child.ParentID = parentID
	child.HasParent = true
	rel := relationship
	if rel == "" {
		rel = t.defaultRel
	}
	child.Relationships[parentID] = rel
	parent.Children = append(parent.Children, childID)
	child.ModifiedAt = time.Now()
	return nil
}

// FindNodeByName performs a case-insensitive exact match first, then falls
// back to fuzzy matching titles with ratio >= threshold (default
// 0.8). It returns the exact match if there is one, otherwise the
// highest-scoring fuzzy match, or (0, false) if nothing matches.
func (t *Tree) FindNodeByName(name string, threshold float64) (NodeID, bool) {
	if name == "" || len(t.nodes) == 0 {
		return 0, false
	}
	lower := strings.ToLower(name)

	for id, n := range t.nodes {
		if strings.ToLower(n.Title) == lower {
			return id, true
		}
	}

	var bestID NodeID
	var bestScore float64
	found := false
	for id, n := range t.nodes {
		score := similarityRatio(lower, strings.ToLower(n.Title))
		if score >= threshold && score > bestScore {
			bestScore = score
			bestID = id
			found = true
		}
	}
	return bestID, found
}

// GetNeighbors returns the immediate 1-hop neighbourhood of a node: its
// parent (if any), its children, and its siblings.
func (t *Tree) GetNeighbors(id NodeID) []Neighbor {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}

	var out []Neighbor

	if n.HasParent {
		if p, ok := t.nodes[n.ParentID]; ok {
			out = append(out, Neighbor{
				ID:           p.ID,
				Name:         p.Title,
				Summary:      p.Summary,
				Relationship: RelationParent,
				Phrase:       n.Relationships[p.ID],
			})
			for _, sibID := range p.Children {
				if sibID == id {
					continue
				}
				if sib, ok := t.nodes[sibID]; ok {
					out = append(out, Neighbor{
						ID:           sib.ID,
						Name:         sib.Title,
						Summary:      sib.Summary,
						Relationship: RelationSibling,
					})
				}
			}
		}
	}

	for _, childID := range n.Children {
		if c, ok := t.nodes[childID]; ok {
			out = append(out, Neighbor{
				ID:           c.ID,
				Name:         c.Title,
				Summary:      c.Summary,
				Relationship: RelationChild,
				Phrase:       c.Relationships[id],
			})
		}
	}

	return out
}

// GetRecentNodes returns up to k node ids ordered by ModifiedAt descending.
func (t *Tree) GetRecentNodes(k int) []NodeID {
	all := t.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ModifiedAt.After(all[j].ModifiedAt) })
	if k > 0 && k < len(all) {
		all = all[:k]
	}
	out := make([]NodeID, len(all))
	for i, n := range all {
		out[i] = n.ID
	}
	return out
}

// GetNodesByBranchingFactor returns node ids ordered by number of children
// descending (ties in ascending id order), optionally limited to k.
func (t *Tree) GetNodesByBranchingFactor(k int) []NodeID {
	all := t.All()
	sort.Slice(all, func(i, j int) bool {
		if len(all[i].Children) != len(all[j].Children) {
			return len(all[i].Children) > len(all[j].Children)
		}
		return all[i].ID < all[j].ID
	})
	if k > 0 && k < len(all) {
		all = all[:k]
	}
	out := make([]NodeID, len(all))
	for i, n := range all {
		out[i] = n.ID
	}
	return out
}

// Roots returns the ids of every orphan node (parent_id == null).
func (t *Tree) Roots() []NodeID {
	var out []NodeID
	for id, n := range t.nodes {
		if !n.HasParent {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Restore inserts n verbatim, preserving its ID, and advances the tree's
// id counter past it so subsequently created nodes never collide. Used
// only by pkg/markdown's loader to reconstruct a tree from files that
// already carry their own node ids; returns an error if id is already
// occupied.
func (t *Tree) Restore(n *Node) error {
	if _, exists := t.nodes[n.ID]; exists {
		return fmt.Errorf("tree: duplicate node id %d during restore", n.ID)
	}
	if n.ID >= t.nextID {
		t.nextID = n.ID + 1
	}
	t.nodes[n.ID] = n.Clone()
	return nil
}

// Snapshot returns a deep copy of the tree, used by the optimiser
// and the context selector so neither can mutate live state.
func (t *Tree) Snapshot() *Tree {
	clone := &Tree{
		nodes:      make(map[NodeID]*Node, len(t.nodes)),
		nextID:     t.nextID,
		defaultRel: t.defaultRel,
	}
	for id, n := range t.nodes {
		clone.nodes[id] = n.Clone()
	}
	return clone
}

func deterministicFilename(id NodeID, title string) string {
	return fmt.Sprintf("%d_%s", id, slugTitle(title))
}

// slugTitle is a lightweight slug used only to seed Node.Filename at
// creation time. pkg/markdown.Slug implements the full on-disk filename
// contract (including the "untitled" fallback and stricter charset) and is
// the authority for what actually gets written to disk; this helper just
// needs to produce something stable and readable before a Title is
// finalized.
func slugTitle(title string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "untitled"
	}
	return s
}
