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
	"regexp"
	"strings"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

// disallowedRun matches one or more characters outside the filename-safe
// charset (letters, digits, '.', '_', '-'). Case is preserved; only
// character class membership drives the substitution, so this also
// catches whitespace, path separators, and every other punctuation
// character in one pass rather than listing each one individually.
var disallowedRun = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug converts title into a filesystem-safe fragment: runs of disallowed
// characters become a single underscore, consecutive underscores collapse,
// and leading/trailing underscores are stripped. An empty result (a title
// with no safe characters at all) falls back to "untitled".
func Slug(title string) string {
	s := disallowedRun.ReplaceAllString(title, "_")
	s = collapseUnderscores(s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "untitled"
	}
	return s
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// filenameFor returns the stable on-disk filename for n, independent of
// Node.Filename (which holds a lighter-weight preview slug assigned at
// creation time — see pkg/tree.slugTitle). This package is the sole
// authority for what actually gets written to disk.
func filenameFor(n *tree.Node) string {
	return filenameForIDTitle(n.ID, n.Title)
}

func filenameForIDTitle(id tree.NodeID, title string) string {
	return fmt.Sprintf("%d_%s.md", id, Slug(title))
}
