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

import "errors"

// ErrUnknownNode is returned when an operation targets a node id that is
// not present in the tree.
var ErrUnknownNode = errors.New("tree: unknown node")

// ErrInvalidParent is returned by strict-mode creation when the requested
// parent id does not exist. In non-strict mode
// (the Applier's default) this condition degrades to an orphan create and
// is logged instead of returned.
var ErrInvalidParent = errors.New("tree: invalid parent")
