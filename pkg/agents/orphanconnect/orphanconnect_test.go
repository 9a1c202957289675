package orphanconnect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

type scriptedClient struct{ response string }

func (s *scriptedClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: s.response}, nil
}
func (s *scriptedClient) Model() string { return "fake" }
func (s *scriptedClient) Close() error  { return nil }

func TestRun_FewerThanTwoRootsSkipsLLMCall(t *testing.T) {
	tr := tree.New()
	tr.CreateNode("Only Root", 0, false, "content", "summary", "")

	client := &scriptedClient{response: `{"groups":[]}`}
	agent := New(client)

	groupings, err := agent.Run(context.Background(), tr.Snapshot())
	require.NoError(t, err)
	assert.Empty(t, groupings)
}

func TestRun_ProposesGroupingOverRoots(t *testing.T) {
	tr := tree.New()
	lions := tr.CreateNode("Lions", 0, false, "lion facts", "lion summary", "")
	tigers := tr.CreateNode("Tigers", 0, false, "tiger facts", "tiger summary", "")

	resp := `{"groups":[{"name":"Big Cats","summary":"lions and tigers","member_node_ids":[1,2]}]}`
	client := &scriptedClient{response: resp}
	agent := New(client)

	groupings, err := agent.Run(context.Background(), tr.Snapshot())
	require.NoError(t, err)
	require.Len(t, groupings, 1)
	assert.Equal(t, "Big Cats", groupings[0].Name)
	assert.ElementsMatch(t, []tree.NodeID{lions, tigers}, groupings[0].Members)
}

func TestRun_FiltersOutNonRootMemberIDs(t *testing.T) {
	tr := tree.New()
	root := tr.CreateNode("Root", 0, false, "c", "s", "")
	tr.CreateNode("Child", root, true, "c", "s", "rel")
	other := tr.CreateNode("Other Root", 0, false, "c", "s", "")

	resp := `{"groups":[{"name":"Group","summary":"s","member_node_ids":[1,2,3]}]}`
	client := &scriptedClient{response: resp}
	agent := New(client)

	groupings, err := agent.Run(context.Background(), tr.Snapshot())
	require.NoError(t, err)
	require.Len(t, groupings, 1)
	assert.ElementsMatch(t, []tree.NodeID{root, other}, groupings[0].Members)
}

func TestRun_DropsGroupWithFewerThanTwoValidMembers(t *testing.T) {
	tr := tree.New()
	tr.CreateNode("Root A", 0, false, "c", "s", "")
	tr.CreateNode("Root B", 0, false, "c", "s", "")

	resp := `{"groups":[{"name":"Lonely","summary":"s","member_node_ids":[1]}]}`
	client := &scriptedClient{response: resp}
	agent := New(client)

	groupings, err := agent.Run(context.Background(), tr.Snapshot())
	require.NoError(t, err)
	assert.Empty(t, groupings)
}

func TestApply_CreatesParentAndAdoptsMembers(t *testing.T) {
	tr := tree.New()
	lions := tr.CreateNode("Lions", 0, false, "c", "s", "")
	tigers := tr.CreateNode("Tigers", 0, false, "c", "s", "")

	created := Apply(tr, []Grouping{{Name: "Big Cats", Summary: "s", Members: []tree.NodeID{lions, tigers}}})
	require.Len(t, created, 1)

	parent, ok := tr.Get(created[0])
	require.True(t, ok)
	assert.Len(t, parent.Children, 2)

	lionNode, _ := tr.Get(lions)
	assert.True(t, lionNode.HasParent)
	assert.Equal(t, created[0], lionNode.ParentID)
}
