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

// Package context selects, ranks, and formats the small slice of tree
// nodes relevant to a query string, for embedding in an LLM prompt. It
// never mutates the tree it reads: every Node it returns is a deep copy.
package context

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

// scoreThreshold is the minimum TF-IDF score a candidate needs to be
// considered relevant at all; below this a match is noise.
const scoreThreshold = 0.01

// ngramWeight multiplies the bigram/trigram similarity relative to the
// unigram similarity, so phrase matches dominate single-word overlap.
const ngramWeight = 2.0

// VectorBackend is an optional, off-by-default augmentation: when set, its
// similarity scores are blended into the ranking alongside TF-IDF. The
// default Selector has none configured and runs TF-IDF-only.
type VectorBackend interface {
	// Similarity returns a cosine-similarity-like score in [0,1] between
	// the query and the node identified by id, or ok=false if the node has
	// no stored embedding.
	Similarity(query string, id tree.NodeID) (score float64, ok bool)
}

// Selector ranks and selects nodes from a Tree for prompt inclusion.
type Selector struct {
	tree   *tree.Tree
	vector VectorBackend
}

// New returns a Selector reading from t. Pass a nil VectorBackend to run
// TF-IDF-only (the default).
func New(t *tree.Tree, vector VectorBackend) *Selector {
	return &Selector{tree: t, vector: vector}
}

// Selected is one ranked result: a deep copy of the node plus the score it
// was ranked with and, when parented, the relationship phrase to render.
type Selected struct {
	Node             *tree.Node
	Score            float64
	ParentTitle      string
	RelationshipText string
}

// Select returns up to limit nodes most relevant to query, highest score
// first. Given identical tree state and query, the result is deterministic.
func (s *Selector) Select(query string, limit int) []Selected {
	if limit <= 0 {
		return nil
	}
	snapshot := s.tree.Snapshot()
	all := snapshot.All()
	if len(all) == 0 {
		return nil
	}

	included := make(map[tree.NodeID]struct{})
	var results []Selected

	for _, n := range s.dependencyFastPath(snapshot, query) {
		if _, ok := included[n.ID]; ok {
			continue
		}
		included[n.ID] = struct{}{}
		results = append(results, Selected{Node: n, Score: 1.0})
		if len(results) >= limit {
			return s.attachRelationships(snapshot, results)
		}
	}

	ranked := s.rankByTFIDF(all, query)
	if ranked == nil {
		ranked = s.rankByKeywordOverlap(all, query)
	}

	for _, r := range ranked {
		if _, ok := included[r.Node.ID]; ok {
			continue
		}
		if r.Score < scoreThreshold {
			continue
		}
		included[r.Node.ID] = struct{}{}
		results = append(results, r)
		if len(results) >= limit {
			break
		}
	}

	return s.attachRelationships(snapshot, results)
}

// dependencyFastPath implements the "equals" fast path: if the query
// references a right-hand-side parameter, any node defining that exact
// parameter (via its "_Defines:" metadata, or failing that the textual
// "X equals ..." heuristic) is surfaced first, ahead of TF-IDF ranking.
func (s *Selector) dependencyFastPath(snapshot *tree.Tree, query string) []*tree.Node {
	if !strings.Contains(strings.ToLower(query), "equals") {
		return nil
	}
	needed := extractNeededParameters(query)
	if len(needed) == 0 {
		return nil
	}
	neededSet := make(map[string]struct{}, len(needed))
	for _, p := range needed {
		neededSet[p] = struct{}{}
	}

	var matches []*tree.Node
	for _, n := range snapshot.All() {
		defined := extractDefinedMetadataParameters(n.Content)
		if len(defined) == 0 {
			if d := extractDefinedParameter(n.Content); d != "" {
				defined = []string{d}
			}
		}
		for _, d := range defined {
			if _, ok := neededSet[d]; ok {
				matches = append(matches, n)
				break
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}

// rankByTFIDF scores every candidate node by
// unigram_sim + ngramWeight*ngram_sim, where each node is represented as
// "title title title summary" (title triple-weighted). Returns nil if the
// corpus degenerates to nothing scoreable (e.g. query has no content
// tokens), signalling the caller to fall back to keyword overlap.
func (s *Selector) rankByTFIDF(nodes []*tree.Node, query string) []Selected {
	queryTokens := dedupe(tokenize(query))
	if len(queryTokens) == 0 {
		return nil
	}
	queryNgrams := dedupe(bigramsAndTrigrams(tokenize(query)))

	unigramDocs := make([][]string, 0, len(nodes)+1)
	ngramDocs := make([][]string, 0, len(nodes)+1)
	for _, n := range nodes {
		doc := tokenize(nodeText(n))
		unigramDocs = append(unigramDocs, doc)
		ngramDocs = append(ngramDocs, bigramsAndTrigrams(doc))
	}
	unigramDocs = append(unigramDocs, queryTokens)
	ngramDocs = append(ngramDocs, queryNgrams)

	unigramModel := fitVectorizer(unigramDocs)
	ngramModel := fitVectorizer(ngramDocs)

	queryUnigramVec := unigramModel.vector(queryTokens)
	queryNgramVec := ngramModel.vector(queryNgrams)

	results := make([]Selected, 0, len(nodes))
	for i, n := range nodes {
		unigramSim := cosineSimilarity(queryUnigramVec, unigramModel.vector(unigramDocs[i]))
		ngramSim := cosineSimilarity(queryNgramVec, ngramModel.vector(ngramDocs[i]))
		score := unigramSim + ngramWeight*ngramSim
		if s.vector != nil {
			if vscore, ok := s.vector.Similarity(query, n.ID); ok {
				score += vscore
			}
		}
		results = append(results, Selected{Node: n, Score: score})
	}

	sortResultsByScore(results)
	return results
}

// rankByKeywordOverlap is the fallback path used when TF-IDF has nothing
// to score against (no query tokens survive stopword filtering): simple
// overlap between query keywords and tokenized title/summary, title
// matches weighted above summary matches.
func (s *Selector) rankByKeywordOverlap(nodes []*tree.Node, query string) []Selected {
	queryTokens := tokenizeKeywords(query)
	if len(queryTokens) == 0 {
		return nil
	}

	results := make([]Selected, 0, len(nodes))
	for _, n := range nodes {
		titleTokens := tokenizeKeywords(n.Title)
		summaryTokens := tokenizeKeywords(n.Summary)

		var score float64
		for token := range queryTokens {
			if _, ok := titleTokens[token]; ok {
				score += 3.0
			}
			if _, ok := summaryTokens[token]; ok {
				score += 1.0
			}
		}
		score /= float64(len(queryTokens))
		results = append(results, Selected{Node: n, Score: score})
	}

	sortResultsByScore(results)
	return results
}

// sortResultsByScore orders results by descending score, breaking ties on
// ascending NodeID so two calls over identical tree state and query always
// produce the same order regardless of the randomized map-range order
// snapshot.All() draws candidates from.
func sortResultsByScore(results []Selected) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Node.ID < results[j].Node.ID
	})
}

// attachRelationships fills in ParentTitle/RelationshipText for each
// result so the formatter doesn't need its own tree lookups.
func (s *Selector) attachRelationships(snapshot *tree.Tree, results []Selected) []Selected {
	for i, r := range results {
		if !r.Node.HasParent {
			continue
		}
		parent, ok := snapshot.Get(r.Node.ParentID)
		if !ok {
			continue
		}
		results[i].ParentTitle = parent.Title
		results[i].RelationshipText = r.Node.Relationships[r.Node.ParentID]
	}
	return results
}

func nodeText(n *tree.Node) string {
	return n.Title + " " + n.Title + " " + n.Title + " " + n.Summary
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FormatForPrompt renders selected nodes as newline-separated blocks
// suitable for embedding directly in an LLM prompt, in the order given.
func FormatForPrompt(selected []Selected) string {
	blocks := make([]string, 0, len(selected))
	for _, r := range selected {
		var b strings.Builder
		fmt.Fprintf(&b, "Node ID: %d\n", r.Node.ID)
		fmt.Fprintf(&b, "Title: %s\n", r.Node.Title)
		fmt.Fprintf(&b, "Summary: %s", r.Node.Summary)
		if r.ParentTitle != "" {
			fmt.Fprintf(&b, "\nRelationship: %s ('%s')", r.RelationshipText, r.ParentTitle)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n----\n")
}
