package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

// fakeEmbedder returns a deterministic one-hot-ish vector derived from the
// text's length, just enough for fakeProvider to discriminate between
// distinct inputs in tests.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := f.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 1 }
func (f *fakeEmbedder) Model() string  { return "fake" }
func (f *fakeEmbedder) Close() error   { return nil }

// fakeProvider is an in-memory Provider scoring by exact vector equality
// (1.0 for a match, 0.0 otherwise), enough to test Index's wiring without
// chromem-go's real similarity math.
type fakeProvider struct {
	docs map[string]map[string][]float32 // collection -> id -> vector
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{docs: make(map[string]map[string][]float32)}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Upsert(_ context.Context, collection, id string, vec []float32, _ map[string]any) error {
	if p.docs[collection] == nil {
		p.docs[collection] = make(map[string][]float32)
	}
	p.docs[collection][id] = vec
	return nil
}

func (p *fakeProvider) Search(ctx context.Context, collection string, vec []float32, topK int) ([]Result, error) {
	return p.SearchWithFilter(ctx, collection, vec, topK, nil)
}

func (p *fakeProvider) SearchWithFilter(_ context.Context, collection string, vec []float32, topK int, _ map[string]any) ([]Result, error) {
	var out []Result
	for id, v := range p.docs[collection] {
		score := float32(0)
		if len(v) == len(vec) && v[0] == vec[0] {
			score = 1.0
		}
		out = append(out, Result{ID: id, Score: score})
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (p *fakeProvider) Delete(context.Context, string, string) error                     { return nil }
func (p *fakeProvider) DeleteByFilter(context.Context, string, map[string]any) error      { return nil }
func (p *fakeProvider) CreateCollection(context.Context, string, int) error               { return nil }
func (p *fakeProvider) DeleteCollection(context.Context, string) error                    { return nil }
func (p *fakeProvider) Close() error                                                      { return nil }

var _ Provider = (*fakeProvider)(nil)

func TestIndex_UpsertThenSimilarityFindsMatch(t *testing.T) {
	emb := &fakeEmbedder{}
	provider := newFakeProvider()
	idx := NewIndex(emb, provider, "")

	require.NoError(t, idx.Upsert(context.Background(), tree.NodeID(7), "lions eat meat"))

	score, ok := idx.Similarity("lions eat meat", 7)
	require.True(t, ok)
	assert.Equal(t, 1.0, score)
}

func TestIndex_SimilarityMissesUnindexedNode(t *testing.T) {
	emb := &fakeEmbedder{}
	provider := newFakeProvider()
	idx := NewIndex(emb, provider, "")

	_, ok := idx.Similarity("anything", 99)
	assert.False(t, ok)
}

func TestIndex_UpsertSkipsEmptyText(t *testing.T) {
	emb := &fakeEmbedder{}
	provider := newFakeProvider()
	idx := NewIndex(emb, provider, "")

	require.NoError(t, idx.Upsert(context.Background(), tree.NodeID(1), ""))
	assert.Equal(t, 0, emb.calls)
}

func TestIndex_UsesDefaultCollectionWhenUnnamed(t *testing.T) {
	emb := &fakeEmbedder{}
	provider := newFakeProvider()
	idx := NewIndex(emb, provider, "")

	require.NoError(t, idx.Upsert(context.Background(), tree.NodeID(3), "some content"))
	_, ok := provider.docs[defaultCollection][nodeKey(3)]
	assert.True(t, ok)
}

func TestNilProvider_SatisfiesProviderAsZeroCostDefault(t *testing.T) {
	var p Provider = NilProvider{}
	results, err := p.Search(context.Background(), "any", []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
