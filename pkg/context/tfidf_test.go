package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_DropsStopwordsAndPunctuation(t *testing.T) {
	tokens := tokenize("The lion is in the Savannah!")
	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "is")
	assert.Contains(t, tokens, "lion")
	assert.Contains(t, tokens, "savannah")
}

func TestNgrams_BigramsAndTrigrams(t *testing.T) {
	tokens := []string{"a", "b", "c", "d"}
	bi := ngrams(tokens, 2)
	assert.Equal(t, []string{"a b", "b c", "c d"}, bi)

	tri := ngrams(tokens, 3)
	assert.Equal(t, []string{"a b c", "b c d"}, tri)
}

func TestNgrams_ShorterThanNReturnsNil(t *testing.T) {
	assert.Nil(t, ngrams([]string{"a"}, 2))
}

func TestCosineSimilarity_IdenticalVectorsIsOne(t *testing.T) {
	docs := [][]string{{"lion", "kenya"}, {"elephant", "tanzania"}}
	v := fitVectorizer(docs)
	vec := v.vector([]string{"lion", "kenya"})
	assert.InDelta(t, 1.0, cosineSimilarity(vec, vec), 1e-9)
}

func TestCosineSimilarity_DisjointVectorsIsZero(t *testing.T) {
	docs := [][]string{{"lion", "kenya"}, {"elephant", "tanzania"}}
	v := fitVectorizer(docs)
	a := v.vector([]string{"lion"})
	b := v.vector([]string{"tanzania"})
	assert.Equal(t, 0.0, cosineSimilarity(a, b))
}
