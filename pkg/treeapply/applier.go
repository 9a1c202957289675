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
	"errors"
	"log/slog"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

// Applier applies batches of Actions to a single Tree in order.
// It is the only component permitted to mutate the tree.
type Applier struct {
	tree *tree.Tree
}

// New returns an Applier bound to t. t must outlive the Applier.
func New(t *tree.Tree) *Applier {
	return &Applier{tree: t}
}

// Apply processes actions in list order, mutating the bound tree. Any
// action referencing a non-existent node (APPEND/UPDATE target) is skipped
// and logged; CREATE against a missing parent degrades to an orphan create
// instead of failing (tree.CreateNode's non-strict default). The returned
// set contains every node id that was created or mutated by an action that
// succeeded.
func (a *Applier) Apply(actions []Action) map[tree.NodeID]struct{} {
	mutated := make(map[tree.NodeID]struct{})

	for _, act := range actions {
		switch act.Kind {
		case KindAppend:
			if err := a.tree.AppendContent(act.TargetNodeID, act.Content, act.Transcript); err != nil {
				if errors.Is(err, tree.ErrUnknownNode) {
					slog.Warn("treeapply: skipping APPEND to unknown node",
						"target_node_id", act.TargetNodeID)
					continue
				}
				slog.Error("treeapply: APPEND failed", "error", err)
				continue
			}
			mutated[act.TargetNodeID] = struct{}{}

		case KindCreate:
			id := a.tree.CreateNode(act.NewNodeName, act.ParentNodeID, act.HasParent, act.Content, act.Summary, act.Relationship)
			mutated[id] = struct{}{}

		case KindUpdate:
			if err := a.tree.UpdateNode(act.NodeID, act.NewContent, act.NewSummary); err != nil {
				if errors.Is(err, tree.ErrUnknownNode) {
					slog.Warn("treeapply: skipping UPDATE of unknown node", "node_id", act.NodeID)
					continue
				}
				slog.Error("treeapply: UPDATE failed", "error", err)
				continue
			}
			mutated[act.NodeID] = struct{}{}

		default:
			slog.Error("treeapply: unknown action kind", "kind", act.Kind)
		}
	}

	return mutated
}
