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

package treeapply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

func TestApply_CreateOrphan(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{CreateOrphan("New Idea", "content", "summary")})

	require.Len(t, mutated, 1)
	for id := range mutated {
		n, ok := tr.Get(id)
		require.True(t, ok)
		assert.Equal(t, "New Idea", n.Title)
		assert.False(t, n.HasParent)
	}
}

func TestApply_CreateChild(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{CreateOrphan("Root", "c", "s")})
	var rootID tree.NodeID
	for id := range mutated {
		rootID = id
	}

	mutated2 := a.Apply([]Action{CreateChild(rootID, "Child", "c", "s", "elaborates on")})
	require.Len(t, mutated2, 1)

	root, _ := tr.Get(rootID)
	assert.Len(t, root.Children, 1)
}

func TestApply_AppendToExisting(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{CreateOrphan("Topic", "first", "s")})
	var id tree.NodeID
	for nid := range mutated {
		id = nid
	}

	mutated2 := a.Apply([]Action{Append(id, "second", "transcript")})
	require.Contains(t, mutated2, id)

	n, _ := tr.Get(id)
	assert.Equal(t, "first\nsecond", n.Content)
}

// Actions referencing unknown nodes are skipped and logged; other actions
// in the batch still apply.
func TestApply_SkipsUnknownAppendTarget(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{
		Append(tree.NodeID(999), "ghost content", ""),
		CreateOrphan("Real Node", "c", "s"),
	})

	assert.NotContains(t, mutated, tree.NodeID(999))
	assert.Len(t, mutated, 1)
}

func TestApply_SkipsUnknownUpdateTarget(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{Update(tree.NodeID(42), "x", "y")})
	assert.Empty(t, mutated)
}

func TestApply_Update(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{CreateOrphan("Topic", "old", "old summary")})
	var id tree.NodeID
	for nid := range mutated {
		id = nid
	}

	a.Apply([]Action{Update(id, "new content", "new summary")})

	n, _ := tr.Get(id)
	assert.Equal(t, "new content", n.Content)
	assert.Equal(t, "new summary", n.Summary)
}

// CREATE against a missing parent degrades to an orphan rather than
// failing the whole batch (non-strict default).
func TestApply_CreateWithMissingParentDegradesToOrphan(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{CreateChild(tree.NodeID(999), "Orphaned", "c", "s", "child of")})
	require.Len(t, mutated, 1)
	for id := range mutated {
		n, _ := tr.Get(id)
		assert.False(t, n.HasParent)
	}
}

// Two simultaneous CREATEs with the same name under the same parent are
// both created, disambiguated by id.
func TestApply_DuplicateNamesBothCreated(t *testing.T) {
	tr := tree.New()
	a := New(tr)

	mutated := a.Apply([]Action{
		CreateOrphan("Same Name", "c1", "s1"),
		CreateOrphan("Same Name", "c2", "s2"),
	})
	assert.Len(t, mutated, 2)
}
