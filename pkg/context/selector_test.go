package context

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

func newTestTree() *tree.Tree {
	tr := tree.New()
	root := tr.CreateNode("Lions in Kenya", 0, false, "There are 50 adult lions in Kenya.", "Adult lion population in Kenya is 50.", "")
	tr.CreateNode("Newborn Cubs", root, true, "Average 2 newborn cubs per adult lion.", "Newborn cub rate in Kenya.", "sub-topic of")
	tr.CreateNode("Elephants in Tanzania", 0, false, "There are 30 adult elephants in Tanzania.", "Adult elephant population in Tanzania is 30.", "")
	return tr
}

func TestSelect_RanksByTitleAndSummaryOverlap(t *testing.T) {
	tr := newTestTree()
	sel := New(tr, nil)

	results := sel.Select("how many lions are in kenya", 2)
	require.NotEmpty(t, results)
	assert.Equal(t, "Lions in Kenya", results[0].Node.Title)
}

func TestSelect_RespectsLimit(t *testing.T) {
	tr := newTestTree()
	sel := New(tr, nil)

	results := sel.Select("lions elephants kenya tanzania", 1)
	assert.Len(t, results, 1)
}

func TestSelect_EmptyTreeReturnsNothing(t *testing.T) {
	sel := New(tree.New(), nil)
	assert.Empty(t, sel.Select("anything", 5))
}

func TestSelect_ZeroLimitReturnsNothing(t *testing.T) {
	tr := newTestTree()
	sel := New(tr, nil)
	assert.Empty(t, sel.Select("lions", 0))
}

func TestSelect_AttachesParentRelationship(t *testing.T) {
	tr := newTestTree()
	sel := New(tr, nil)

	results := sel.Select("newborn cubs lions", 5)
	var found bool
	for _, r := range results {
		if r.Node.Title == "Newborn Cubs" {
			found = true
			assert.Equal(t, "Lions in Kenya", r.ParentTitle)
			assert.Equal(t, "sub-topic of", r.RelationshipText)
		}
	}
	assert.True(t, found)
}

func TestSelect_DependencyFastPathPrioritizesDefiningNode(t *testing.T) {
	tr := tree.New()
	tr.CreateNode("Adult Lions In Kenya", 0, false,
		"_Defines:\n- adult_lions_kenya\n\nNumber of adult lions in kenya equals 50.", "Defines adult lion count.", "")
	tr.CreateNode("Unrelated", 0, false, "Some unrelated node about rainfall.", "Rainfall data.", "")

	sel := New(tr, nil)
	results := sel.Select("total equals number of adult lions in kenya", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "Adult Lions In Kenya", results[0].Node.Title)
}

func TestSelect_TiedScoresBreakOnNodeIDAcrossRepeatedCalls(t *testing.T) {
	tr := tree.New()
	// Three nodes with identical title/summary tie exactly on TF-IDF score;
	// only the NodeID tie-breaker can order them consistently, since
	// snapshot.All() draws candidates from a map in randomized order.
	var ids []tree.NodeID
	for i := 0; i < 3; i++ {
		ids = append(ids, tr.CreateNode("Lion Pride", 0, false, "Lions live in prides.", "Lion pride facts.", ""))
	}

	sel := New(tr, nil)

	first := sel.Select("lion pride", 5)
	require.Len(t, first, 3)

	for i := 0; i < 20; i++ {
		again := sel.Select("lion pride", 5)
		require.Len(t, again, 3)
		for j := range again {
			assert.Equal(t, first[j].Node.ID, again[j].Node.ID, "iteration %d: result order must be stable across repeated calls", i)
		}
	}

	// Tied scores must come out in ascending NodeID order.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for j, id := range ids {
		assert.Equal(t, id, first[j].Node.ID)
	}
}

func TestFormatForPrompt_IncludesRelationshipWhenParented(t *testing.T) {
	tr := newTestTree()
	sel := New(tr, nil)
	results := sel.Select("newborn cubs", 5)

	out := FormatForPrompt(results)
	assert.Contains(t, out, "Node ID:")
	assert.Contains(t, out, "Title:")
	assert.Contains(t, out, "Summary:")
}

func TestFormatForPrompt_SeparatesBlocksWithDashes(t *testing.T) {
	tr := newTestTree()
	sel := New(tr, nil)
	results := sel.Select("lions elephants kenya tanzania", 5)
	require.Len(t, results, 3)

	out := FormatForPrompt(results)
	assert.Contains(t, out, "\n----\n")
}
