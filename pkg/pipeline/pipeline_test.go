package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appendagent "github.com/kadirpekel/voicetree/pkg/agents/append"
	"github.com/kadirpekel/voicetree/pkg/llm"
	"github.com/kadirpekel/voicetree/pkg/treeapply"
	"github.com/kadirpekel/voicetree/pkg/tree"
)

// scriptedClient replays one canned response per Complete call, in order.
type scriptedClient struct {
	responses []string
	calls     int
}

func (s *scriptedClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		return llm.Response{}, assert.AnError
	}
	return llm.Response{Text: s.responses[i]}, nil
}
func (s *scriptedClient) Model() string { return "fake" }
func (s *scriptedClient) Close() error  { return nil }

type recordingWriter struct {
	calls []map[tree.NodeID]struct{}
}

func (r *recordingWriter) WriteNodes(_ context.Context, ids map[tree.NodeID]struct{}, _ *tree.Tree) error {
	r.calls = append(r.calls, ids)
	return nil
}

type recordingIndexer struct {
	upserted map[tree.NodeID]string
}

func (r *recordingIndexer) Upsert(_ context.Context, id tree.NodeID, text string) error {
	if r.upserted == nil {
		r.upserted = make(map[tree.NodeID]string)
	}
	r.upserted[id] = text
	return nil
}

type recordingSessionRecorder struct {
	kinds []string
}

func (r *recordingSessionRecorder) RecordMutation(kind string) {
	r.kinds = append(r.kinds, kind)
}

func TestProcessFragment_EmptyFragmentIsNoOp(t *testing.T) {
	tr := tree.New()
	client := &scriptedClient{}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "   "))
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, 0, tr.Len())
}

func TestProcessFragment_BelowThresholdBuffersWithoutCallingLLM(t *testing.T) {
	tr := tree.New()
	client := &scriptedClient{}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1000})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "a short fragment"))
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, 0, tr.Len())
	assert.Greater(t, o.BufferLen(), 0)
}

func TestProcessFragment_SingleCompleteSegmentCreatesAndOptimises(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions eat meat","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"Lion Diet","summary":"diet","content":"lions eat meat"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	writer := &recordingWriter{}
	o, err := New(tr, client, nil, nil, writer, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions eat meat"))
	require.Equal(t, 1, tr.Len())
	require.Len(t, writer.calls, 1)
	assert.Equal(t, 3, client.calls)
}

func TestProcessFragment_UpsertsMutatedNodesIntoConfiguredIndexer(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions eat meat","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"Lion Diet","summary":"diet","content":"lions eat meat"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	indexer := &recordingIndexer{}
	o, err := New(tr, client, nil, indexer, nil, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions eat meat"))
	require.Equal(t, 1, tr.Len())
	require.Len(t, indexer.upserted, 1)
	for _, text := range indexer.upserted {
		assert.Contains(t, text, "Lion Diet")
		assert.Contains(t, text, "lions eat meat")
	}
}

func TestProcessFragment_ReportsAppliedMutationKindsToConfiguredSessionRecorder(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions eat meat","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"Lion Diet","summary":"diet","content":"lions eat meat"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	recorder := &recordingSessionRecorder{}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1, SessionRecorder: recorder})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions eat meat"))
	require.Equal(t, 1, tr.Len())
	assert.Contains(t, recorder.kinds, "create")
}

func TestProcessFragment_NilSessionRecorderIsNoOp(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions eat meat","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"Lion Diet","summary":"diet","content":"lions eat meat"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions eat meat"))
	require.Equal(t, 1, tr.Len())
}

func TestProcessFragment_NilIndexerIsNoOp(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions eat meat","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"Lion Diet","summary":"diet","content":"lions eat meat"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions eat meat"))
	require.Equal(t, 1, tr.Len())
}

func TestProcessFragment_MergesMultipleOrphanCreatesIntoOneRoot(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions roar","is_complete":true},{"text":"tigers swim","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"Lions","summary":"lion facts","content":"lions roar"}`,
		`{"action":"CREATE","new_node_name":"Tigers","summary":"tiger facts","content":"tigers swim"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions roar and tigers swim"))
	require.Equal(t, 1, tr.Len())
	roots := tr.Roots()
	require.Len(t, roots, 1)
	node, ok := tr.Get(roots[0])
	require.True(t, ok)
	assert.Equal(t, "Lions & Tigers", node.Title)
}

func TestProcessFragment_ReinjectsIncompleteTrailingSegment(t *testing.T) {
	tr := tree.New()
	responses := []string{
		`{"segments":[{"text":"lions roar","is_complete":true},{"text":"and also they","is_complete":false}]}`,
		`{"action":"CREATE","new_node_name":"Lions","summary":"s","content":"lions roar"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "lions roar and also they"))
	require.Equal(t, 1, tr.Len())
	assert.Greater(t, o.BufferLen(), 0)
}

func TestProcessFragment_MaintenanceTriggersConnectOrphansAfterInterval(t *testing.T) {
	tr := tree.New()
	existing := tr.CreateNode("Existing Root", 0, false, "ec", "es", "")

	responses := []string{
		`{"segments":[{"text":"new topic","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"New Root","summary":"s","content":"new topic"}`,
		`{"needs_update":false,"splits":[]}`,
		`{"groups":[{"name":"Grouped","summary":"s","member_node_ids":[1,2]}]}`,
	}
	client := &scriptedClient{responses: responses}
	writer := &recordingWriter{}
	o, err := New(tr, client, nil, nil, writer, Config{BufferSizeThreshold: 1, OrphanConnectionInterval: 1})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "new topic"))

	roots := tr.Roots()
	require.Len(t, roots, 1)
	grouped, ok := tr.Get(roots[0])
	require.True(t, ok)
	assert.Equal(t, "Grouped", grouped.Title)

	existingNode, ok := tr.Get(existing)
	require.True(t, ok)
	assert.True(t, existingNode.HasParent)
	assert.Equal(t, roots[0], existingNode.ParentID)

	require.Len(t, writer.calls, 2)
}

func TestProcessFragment_MaintenanceNotYetDueLeavesRootsAlone(t *testing.T) {
	tr := tree.New()
	tr.CreateNode("Existing Root", 0, false, "ec", "es", "")

	responses := []string{
		`{"segments":[{"text":"new topic","is_complete":true}]}`,
		`{"action":"CREATE","new_node_name":"New Root","summary":"s","content":"new topic"}`,
		`{"needs_update":false,"splits":[]}`,
	}
	client := &scriptedClient{responses: responses}
	o, err := New(tr, client, nil, nil, nil, Config{BufferSizeThreshold: 1, OrphanConnectionInterval: 100})
	require.NoError(t, err)

	require.NoError(t, o.ProcessFragment(context.Background(), "new topic"))
	assert.Equal(t, 2, len(tr.Roots()))
	assert.Equal(t, 3, client.calls)
}

func TestMergeOrphanCreates_SingleOrphanPassesThroughUnchanged(t *testing.T) {
	actions := []treeapply.Action{treeapply.CreateOrphan("A", "ac", "as")}
	merged := mergeOrphanCreates(actions)
	require.Len(t, merged, 1)
	assert.Equal(t, "A", merged[0].NewNodeName)
}

func TestMergeOrphanCreates_LeavesParentedAndNonCreateActionsAlone(t *testing.T) {
	actions := []treeapply.Action{
		treeapply.Append(1, "c", "t"),
		treeapply.CreateChild(2, "Child", "cc", "cs", "rel"),
	}
	merged := mergeOrphanCreates(actions)
	require.Len(t, merged, 2)
	assert.Equal(t, treeapply.KindAppend, merged[0].Kind)
	assert.Equal(t, treeapply.KindCreate, merged[1].Kind)
	assert.True(t, merged[1].HasParent)
}

func TestIncompleteTail_ConcatenatesOnlyIncompleteSegments(t *testing.T) {
	segs := []appendagent.SegmentModel{
		{Text: "done", IsComplete: true},
		{Text: "partial one", IsComplete: false},
	}
	assert.Equal(t, "partial one", incompleteTail(segs))
}
