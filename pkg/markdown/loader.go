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

package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

var (
	titleSuffixRE = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	childLinkRE   = regexp.MustCompile(`^-\s*parent_of\s*\[\[(.+?)\]\]\s*\(([^)]*)\s+this node\)\s*$`)
	parentLinkRE  = regexp.MustCompile(`^-\s*(\S+)\s*\[\[(.+?)\]\]\s*$`)
)

// LoadTree parses every ".md" file in dir and reconstructs a *tree.Tree,
// matching the structure WriteNodes produces: frontmatter node_id is
// authoritative for identity, the `### <summary>` line (if present) is
// split back out of content, and the `_Links:_` section is resolved into
// parent/child edges in a second pass once every file's node_id and
// filename are known.
func LoadTree(dir string) (*tree.Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("markdown: reading dir %s: %w", dir, err)
	}

	t := tree.New()
	filenameToID := make(map[string]tree.NodeID)
	linksByFilename := make(map[string][]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("markdown: reading %s: %w", entry.Name(), err)
		}
		n, links, err := parseNodeFile(string(raw))
		if err != nil {
			return nil, fmt.Errorf("markdown: parsing %s: %w", entry.Name(), err)
		}
		n.Filename = entry.Name()
		if err := t.Restore(n); err != nil {
			return nil, fmt.Errorf("markdown: %s: %w", entry.Name(), err)
		}
		filenameToID[entry.Name()] = n.ID
		linksByFilename[entry.Name()] = links
	}

	for filename, links := range linksByFilename {
		parentID, ok := filenameToID[filename]
		if !ok {
			continue
		}
		parent, ok := t.Get(parentID)
		if !ok {
			continue
		}
		resolveLinks(t, parent, links, filenameToID)
	}

	return t, nil
}

func parseNodeFile(raw string) (*tree.Node, []string, error) {
	fm, rest, err := splitFrontmatter(raw)
	if err != nil {
		return nil, nil, err
	}

	body, links := splitLinksSection(rest)
	summary, content := splitSummary(body)

	title := titleSuffixRE.ReplaceAllString(fm.Title, "")

	n := &tree.Node{
		ID:            tree.NodeID(fm.NodeID),
		Title:         title,
		Content:       content,
		Summary:       summary,
		Relationships: make(map[tree.NodeID]string),
		Color:         fm.Color,
		Tags:          fm.Tags,
	}
	if fm.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, fm.CreatedAt); err == nil {
			n.CreatedAt = ts
		}
	}
	if fm.ModifiedAt != "" {
		if ts, err := time.Parse(time.RFC3339, fm.ModifiedAt); err == nil {
			n.ModifiedAt = ts
		}
	}

	return n, links, nil
}

func splitFrontmatter(raw string) (frontmatter, string, error) {
	const delim = "---\n"
	if !strings.HasPrefix(raw, delim) {
		return frontmatter{}, "", fmt.Errorf("missing frontmatter delimiter")
	}
	rest := raw[len(delim):]
	end := strings.Index(rest, "\n"+delim)
	if end < 0 {
		return frontmatter{}, "", fmt.Errorf("unterminated frontmatter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return frontmatter{}, "", fmt.Errorf("parsing frontmatter yaml: %w", err)
	}

	body := rest[end+len(delim)+1:]
	return fm, body, nil
}

func splitLinksSection(body string) (beforeLinks string, links []string) {
	idx := strings.Index(body, linksSeparator)
	if idx < 0 {
		return body, nil
	}
	beforeLinks = body[:idx]

	after := body[idx+len(linksSeparator):]
	after = strings.TrimPrefix(strings.TrimLeft(after, "\n"), "_Links:_")
	for _, line := range strings.Split(after, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			links = append(links, line)
		}
	}
	return beforeLinks, links
}

func splitSummary(body string) (summary, content string) {
	body = strings.TrimPrefix(body, "\n")
	lines := strings.Split(body, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "### ") {
		summary = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0]), "### "))
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
			lines = lines[1:]
		}
	}
	return summary, strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// resolveLinks mutates parent (a child of the filenameToID entries) and
// its children in the live tree to reflect the _Links:_ lines collected
// for its file.
func resolveLinks(t *tree.Tree, parent *tree.Node, links []string, filenameToID map[string]tree.NodeID) {
	for _, line := range links {
		if m := childLinkRE.FindStringSubmatch(line); m != nil {
			childFile, rel := m[1], unsnakeCase(m[2])
			childID, ok := filenameToID[childFile]
			if !ok {
				continue
			}
			child, ok := t.Get(childID)
			if !ok {
				continue
			}
			if !containsID(parent.Children, childID) {
				parent.Children = append(parent.Children, childID)
			}
			child.ParentID = parent.ID
			child.HasParent = true
			child.Relationships[parent.ID] = rel
			continue
		}
		if m := parentLinkRE.FindStringSubmatch(line); m != nil {
			rel, parentFile := unsnakeCase(m[1]), m[2]
			parentID, ok := filenameToID[parentFile]
			if !ok {
				continue
			}
			parent.ParentID = parentID
			parent.HasParent = true
			parent.Relationships[parentID] = rel
		}
	}
}

func containsID(ids []tree.NodeID, id tree.NodeID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func unsnakeCase(phrase string) string {
	return strings.ReplaceAll(phrase, "_", " ")
}
