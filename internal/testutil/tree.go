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

package testutil

import "github.com/kadirpekel/voicetree/pkg/tree"

// RootSpec describes one root node (and optionally its children) to seed
// into a fresh tree via NewTreeWithRoots.
type RootSpec struct {
	Title    string
	Content  string
	Summary  string
	Children []ChildSpec
}

// ChildSpec describes one child node under a RootSpec.
type ChildSpec struct {
	Title        string
	Content      string
	Summary      string
	Relationship string
}

// NewTreeWithRoots builds a tree.Tree with one node per RootSpec (and any
// nested ChildSpec), returning the tree alongside the ids assigned to each
// root, in order.
func NewTreeWithRoots(specs ...RootSpec) (*tree.Tree, []tree.NodeID) {
	t := tree.New()
	roots := make([]tree.NodeID, 0, len(specs))

	for _, spec := range specs {
		rootID := t.CreateNode(spec.Title, 0, false, spec.Content, spec.Summary, "")
		roots = append(roots, rootID)

		for _, child := range spec.Children {
			relationship := child.Relationship
			if relationship == "" {
				relationship = "relates to"
			}
			t.CreateNode(child.Title, rootID, true, child.Content, child.Summary, relationship)
		}
	}

	return t, roots
}
