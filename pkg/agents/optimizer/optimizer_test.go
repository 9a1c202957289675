package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/treeapply"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// scriptedClient always returns the same canned response text.
type scriptedClient struct {
	response string
}

func (s *scriptedClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: s.response}, nil
}
func (s *scriptedClient) Model() string { return "fake" }
func (s *scriptedClient) Close() error  { return nil }

func newTree(t *testing.T) (*tree.Tree, tree.NodeID) {
	t.Helper()
	tr := tree.New()
	id := tr.CreateNode("Big Cats", 0, false, "Lions and tigers are both big cats with sharp claws.", "big cats overview", "")
	return tr, id
}

func TestRun_NoChangeReturnsNilActions(t *testing.T) {
	tr, id := newTree(t)
	client := &scriptedClient{response: `{"needs_update": false, "splits": []}`}
	agent := New(client)

	actions, err := agent.Run(context.Background(), id, tr.Snapshot())
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestRun_UpdateOnlyReturnsOneUpdateAction(t *testing.T) {
	tr, id := newTree(t)
	resp := `{"needs_update": true, "new_content": "rewritten", "new_summary": "new summary", "splits": []}`
	client := &scriptedClient{response: resp}
	agent := New(client)

	actions, err := agent.Run(context.Background(), id, tr.Snapshot())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, treeapply.KindUpdate, actions[0].Kind)
	assert.Equal(t, "rewritten", actions[0].NewContent)
}

func TestRun_SplitProducesChildCreateActionsParentedToSelf(t *testing.T) {
	tr, id := newTree(t)
	resp := `{
		"needs_update": true,
		"new_content": "Big cats share traits.",
		"new_summary": "overview",
		"splits": [
			{"name": "Lions", "content": "Lions live in prides.", "summary": "lion facts", "relationship": "example of"},
			{"name": "Tigers", "content": "Tigers are solitary.", "summary": "tiger facts", "relationship": "example of"}
		]
	}`
	client := &scriptedClient{response: resp}
	agent := New(client)

	actions, err := agent.Run(context.Background(), id, tr.Snapshot())
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, treeapply.KindUpdate, actions[0].Kind)
	for _, a := range actions[1:] {
		assert.Equal(t, treeapply.KindCreate, a.Kind)
		assert.True(t, a.HasParent)
		assert.Equal(t, id, a.ParentNodeID)
	}
}

func TestRun_UnknownNodeErrors(t *testing.T) {
	tr := tree.New()
	client := &scriptedClient{response: `{"needs_update": false, "splits": []}`}
	agent := New(client)

	_, err := agent.Run(context.Background(), tree.NodeID(999), tr.Snapshot())
	require.Error(t, err)
}

func TestFormatNodeForJudgment_IncludesNeighbors(t *testing.T) {
	tr := tree.New()
	root := tr.CreateNode("Root", 0, false, "root content", "root summary", "")
	child := tr.CreateNode("Child", root, true, "child content", "child summary", "example of")

	out := formatNodeForJudgment(mustGet(t, tr, child), tr.GetNeighbors(child))
	assert.Contains(t, out, "Root")
	assert.Contains(t, out, "parent")
}

func mustGet(t *testing.T, tr *tree.Tree, id tree.NodeID) *tree.Node {
	t.Helper()
	n, ok := tr.Get(id)
	require.True(t, ok)
	return n
}
