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

// Package markdown renders tree nodes to on-disk markdown files (one file
// per node, YAML frontmatter plus a body and a links section) and loads
// them back into a tree, so the file tree is the canonical, human-readable
// store for the knowledge graph.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

const linksSeparator = "-----------------"

// Writer binds WriteNodes to a fixed output directory, satisfying
// pkg/pipeline's MarkdownWriter interface so the orchestrator doesn't need
// to know the directory itself.
type Writer struct {
	OutputDir string

	// Cache, when set, records each written node's filename so a caller can
	// later ask it for Stale filenames (see IndexCache).
	Cache *IndexCache
}

// NewWriter returns a Writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{OutputDir: outputDir}
}

// WriteNodes renders ids from snapshot into the bound output directory, and
// records each written node's filename in the bound Cache, if any.
func (w *Writer) WriteNodes(ctx context.Context, ids map[tree.NodeID]struct{}, snapshot *tree.Tree) error {
	if err := WriteNodes(ctx, w.OutputDir, ids, snapshot); err != nil {
		return err
	}
	if w.Cache == nil {
		return nil
	}
	for id := range ids {
		n, ok := snapshot.Get(id)
		if !ok {
			continue
		}
		if err := w.Cache.record(filenameFor(n), id); err != nil {
			return err
		}
	}
	return nil
}

// frontmatter is the YAML document written between the leading `---` lines
// of every node file.
type frontmatter struct {
	Title      string   `yaml:"title"`
	NodeID     int64    `yaml:"node_id"`
	Color      string   `yaml:"color,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	CreatedAt  string   `yaml:"created_at,omitempty"`
	ModifiedAt string   `yaml:"modified_at,omitempty"`
}

// WriteNodes renders one file per id into outputDir, reading node state
// from snapshot. Each file is truncated and written in place, then fsync'd
// before it is closed. There is no temp-file-and-rename step, so a crash
// mid-write can leave a partially written file at its final path.
func WriteNodes(ctx context.Context, outputDir string, ids map[tree.NodeID]struct{}, snapshot *tree.Tree) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("markdown: creating output dir %s: %w", outputDir, err)
	}

	for id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, ok := snapshot.Get(id)
		if !ok {
			continue
		}
		if err := writeNode(outputDir, n, snapshot); err != nil {
			return fmt.Errorf("markdown: writing node %d: %w", id, err)
		}
	}
	return nil
}

func writeNode(outputDir string, n *tree.Node, snapshot *tree.Tree) error {
	path := filepath.Join(outputDir, filenameFor(n))

	var body strings.Builder
	writeFrontmatter(&body, n)
	writeBody(&body, n)
	writeLinks(&body, n, snapshot)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(body.String()); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

func writeFrontmatter(w *strings.Builder, n *tree.Node) {
	fm := frontmatter{
		Title:  fmt.Sprintf("%s (%d)", n.Title, n.ID),
		NodeID: int64(n.ID),
		Color:  n.Color,
		Tags:   n.Tags,
	}
	if !n.CreatedAt.IsZero() {
		fm.CreatedAt = n.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if !n.ModifiedAt.IsZero() {
		fm.ModifiedAt = n.ModifiedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	out, err := yaml.Marshal(fm)
	if err != nil {
		// fm is a fixed, small struct of strings/slices; Marshal only fails
		// on unsupported types, which this never carries.
		out = []byte(fmt.Sprintf("title: %q\nnode_id: %d\n", fm.Title, fm.NodeID))
	}

	w.WriteString("---\n")
	w.Write(out)
	w.WriteString("---\n")
}

func writeBody(w *strings.Builder, n *tree.Node) {
	if n.Summary != "" && !strings.Contains(n.Content, "### "+n.Summary) {
		w.WriteString("### " + n.Summary + "\n\n")
	}
	w.WriteString(n.Content)
	if !strings.HasSuffix(n.Content, "\n") {
		w.WriteString("\n")
	}
	w.WriteString("\n" + linksSeparator + "\n")
}

func writeLinks(w *strings.Builder, n *tree.Node, snapshot *tree.Tree) {
	w.WriteString("_Links:_\n")

	for _, childID := range n.Children {
		child, ok := snapshot.Get(childID)
		if !ok {
			continue
		}
		rel := child.Relationships[n.ID]
		if rel == "" {
			rel = "child of"
		}
		w.WriteString(fmt.Sprintf("- parent_of [[%s]] (%s this node)\n", filenameFor(child), snakeCase(rel)))
	}

	if n.HasParent {
		parent, ok := snapshot.Get(n.ParentID)
		if ok {
			rel := n.Relationships[n.ParentID]
			if rel == "" {
				rel = "child of"
			}
			w.WriteString(fmt.Sprintf("- %s [[%s]]\n", snakeCase(rel), filenameFor(parent)))
		}
	}
}

func snakeCase(phrase string) string {
	return strings.ReplaceAll(strings.TrimSpace(phrase), " ", "_")
}
