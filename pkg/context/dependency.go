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

package context

import (
	"regexp"
	"strings"
)

var (
	paramPatternAvgNewborn = regexp.MustCompile(`average number of newborn children per adult (\w+(?:\s+\w+)*) in (\w+(?:\s+\w+)*)`)
	paramPatternAdultCount = regexp.MustCompile(`number of adult (\w+(?:\s+\w+)*) in (\w+(?:\s+\w+)*)`)
	paramPatternTotalCount = regexp.MustCompile(`total number of adult animals in (\w+(?:\s+\w+)*)`)
)

// extractParameters pulls normalized parameter names out of a phrase like
// "number of adult lions in kenya", returning tokens such as
// "adult_lions_kenya" that can be compared across nodes and queries.
func extractParameters(text string) []string {
	lower := strings.ToLower(text)
	var params []string

	for _, m := range paramPatternAvgNewborn.FindAllStringSubmatch(lower, -1) {
		params = append(params, "avg_newborn_"+underscored(m[1])+"_"+underscored(m[2]))
	}
	for _, m := range paramPatternAdultCount.FindAllStringSubmatch(lower, -1) {
		params = append(params, "adult_"+underscored(m[1])+"_"+underscored(m[2]))
	}
	for _, m := range paramPatternTotalCount.FindAllStringSubmatch(lower, -1) {
		params = append(params, "total_adults_"+underscored(m[1]))
	}
	return params
}

func underscored(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// extractDefinedParameter returns the parameter a node's content defines,
// i.e. whatever precedes the first "equals" in the text. Returns "" if the
// node defines nothing recognizable.
func extractDefinedParameter(nodeText string) string {
	lower := strings.ToLower(nodeText)
	idx := strings.Index(lower, "equals")
	if idx < 0 {
		return ""
	}
	definingPart := strings.TrimSpace(lower[:idx])
	params := extractParameters(definingPart)
	if len(params) == 0 {
		return ""
	}
	return params[0]
}

// extractNeededParameters returns the parameters referenced on the
// right-hand side of "equals" in a query, or every parameter mentioned if
// the query contains no "equals" token at all.
func extractNeededParameters(query string) []string {
	lower := strings.ToLower(query)
	idx := strings.Index(lower, "equals")
	if idx < 0 {
		return extractParameters(query)
	}
	expression := strings.TrimSpace(lower[idx+len("equals"):])
	return extractParameters(expression)
}

// extractDefinedMetadataParameters reads the "_Defines:" metadata block a
// node's content may carry (written by the optimiser) and returns each
// listed parameter, bypassing the regex heuristics entirely when the
// structured metadata is present.
func extractDefinedMetadataParameters(content string) []string {
	return extractMetadataList(content, "_Defines:")
}

func extractMetadataList(content, header string) []string {
	if content == "" || !strings.Contains(content, header) {
		return nil
	}
	var items []string
	inSection := false
	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == header {
			inSection = true
			continue
		}
		if inSection && (strings.HasPrefix(line, "_") || line == "_Links:") {
			break
		}
		if inSection && strings.HasPrefix(line, "- ") {
			if item := strings.TrimSpace(line[2:]); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}
