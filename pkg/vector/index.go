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

package vector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kadirpekel/voicetree/pkg/embedder"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// searchDepth bounds how many nearest neighbors Similarity fetches per
// lookup. A node whose embedding doesn't place it within the top
// searchDepth matches for a query comes back as ok=false rather than with
// an accurate low score - the tradeoff for keeping context.VectorBackend's
// one-query-per-node-id shape instead of batching every candidate into a
// single search.
const searchDepth = 50

// defaultCollection is the collection Index stores node embeddings under
// when the caller doesn't name one.
const defaultCollection = "voicetree_nodes"

// Index bridges an embedder.Embedder and a Provider into the two shapes
// the rest of VoiceTree needs: pipeline.Indexer's Upsert keeps a node's
// embedding current as content changes, and context.VectorBackend's
// Similarity answers one query/node pair at a time for the context
// selector.
//
// Modeled on a document-search engine pairing the same two collaborators
// (an embedder and a vector.Provider) for ingestion and search; Index
// keeps only the single-query lookup shape the context selector's
// VectorBackend interface requires, not a full chunk/rerank pipeline.
type Index struct {
	embedder   embedder.Embedder
	provider   Provider
	collection string
}

// NewIndex returns an Index over emb and provider, storing vectors under
// collection (defaultCollection if empty).
func NewIndex(emb embedder.Embedder, provider Provider, collection string) *Index {
	if collection == "" {
		collection = defaultCollection
	}
	return &Index{embedder: emb, provider: provider, collection: collection}
}

// Upsert embeds text and stores it under id, replacing any previously
// stored vector for that node. Satisfies pipeline.Indexer.
func (ix *Index) Upsert(ctx context.Context, id tree.NodeID, text string) error {
	if text == "" {
		return nil
	}
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("vector index: embedding node %d: %w", id, err)
	}
	meta := map[string]any{"node_id": int64(id)}
	if err := ix.provider.Upsert(ctx, ix.collection, nodeKey(id), vec, meta); err != nil {
		return fmt.Errorf("vector index: upserting node %d: %w", id, err)
	}
	return nil
}

// Similarity satisfies context.VectorBackend. It embeds query, searches
// the collection for its nearest neighbors, and reports id's score among
// them. ok is false when id has no stored embedding yet or doesn't place
// within searchDepth of query.
func (ix *Index) Similarity(query string, id tree.NodeID) (float64, bool) {
	ctx := context.Background()
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return 0, false
	}
	results, err := ix.provider.Search(ctx, ix.collection, vec, searchDepth)
	if err != nil {
		return 0, false
	}
	key := nodeKey(id)
	for _, r := range results {
		if r.ID == key {
			return float64(r.Score), true
		}
	}
	return 0, false
}

func nodeKey(id tree.NodeID) string {
	return strconv.FormatInt(int64(id), 10)
}
