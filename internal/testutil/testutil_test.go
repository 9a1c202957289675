package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/voicetree/pkg/llm"
)

func TestFakeLLMClient_RepliesInOrderThenExhausts(t *testing.T) {
	client := NewFakeLLMClient("first", "second")

	resp, err := client.Complete(context.Background(), llm.Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = client.Complete(context.Background(), llm.Request{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	_, err = client.Complete(context.Background(), llm.Request{Prompt: "c"})
	assert.ErrorIs(t, err, ErrScriptExhausted)

	assert.Equal(t, 3, client.CallCount())
	assert.Len(t, client.Requests, 3)
}

func TestNewTreeWithRoots_BuildsRootsAndChildren(t *testing.T) {
	tr, roots := NewTreeWithRoots(
		RootSpec{
			Title:   "Root A",
			Content: "root content",
			Children: []ChildSpec{
				{Title: "Child A1", Content: "child content"},
			},
		},
		RootSpec{Title: "Root B", Content: "root b content"},
	)

	require.Len(t, roots, 2)
	assert.Equal(t, 3, tr.Len())

	node, ok := tr.Get(roots[0])
	require.True(t, ok)
	assert.Equal(t, "Root A", node.Title)
}
