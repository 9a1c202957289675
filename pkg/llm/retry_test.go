package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	responses []Response
	errs      []error
	calls     int
}

func (f *fakeClient) Complete(ctx context.Context, req Request) (Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Response{}, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeClient) Model() string { return "fake" }
func (f *fakeClient) Close() error  { return nil }

func TestCompleteWithRetry_SucceedsFirstTry(t *testing.T) {
	c := &fakeClient{responses: []Response{{Text: "ok"}}}
	resp, err := CompleteWithRetry(context.Background(), c, Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 1, c.calls)
}

func TestCompleteWithRetry_RetriesOnUnavailableThenSucceeds(t *testing.T) {
	c := &fakeClient{
		errs:      []error{ErrUnavailable, ErrUnavailable},
		responses: []Response{{}, {}, {Text: "ok"}},
	}
	resp, err := CompleteWithRetry(context.Background(), c, Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, c.calls)
}

func TestCompleteWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	c := &fakeClient{errs: []error{ErrUnavailable, ErrUnavailable, ErrUnavailable}}
	_, err := CompleteWithRetry(context.Background(), c, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, MaxAttempts, c.calls)
}

func TestCompleteWithRetry_DoesNotRetryNonUnavailableError(t *testing.T) {
	boom := fmt.Errorf("boom")
	c := &fakeClient{errs: []error{boom}}
	_, err := CompleteWithRetry(context.Background(), c, Request{})
	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, c.calls)
}

func TestCompleteJSON_ParsesCleanJSON(t *testing.T) {
	c := &fakeClient{responses: []Response{{Text: `{"name":"root"}`}}}
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, CompleteJSON(context.Background(), c, Request{}, &out))
	assert.Equal(t, "root", out.Name)
}

func TestCompleteJSON_StripsMarkdownFence(t *testing.T) {
	c := &fakeClient{responses: []Response{{Text: "```json\n{\"name\":\"root\"}\n```"}}}
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, CompleteJSON(context.Background(), c, Request{}, &out))
	assert.Equal(t, "root", out.Name)
}

func TestCompleteJSON_RetriesOnMalformedThenSucceeds(t *testing.T) {
	c := &fakeClient{responses: []Response{{Text: "not json"}, {Text: `{"name":"root"}`}}}
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, CompleteJSON(context.Background(), c, Request{}, &out))
	assert.Equal(t, "root", out.Name)
	assert.Equal(t, 2, c.calls)
}

func TestCompleteJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	c := &fakeClient{responses: []Response{{Text: "not json"}, {Text: "still not json"}, {Text: "nope"}}}
	var out struct{}
	err := CompleteJSON(context.Background(), c, Request{}, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Equal(t, MaxAttempts, c.calls)
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                       `{"a":1}`,
		"```json\n{\"a\":1}\n```":       `{"a":1}`,
		"here you go: {\"a\":1} thanks": `{"a":1}`,
		"[1,2,3]":                       `[1,2,3]`,
	}
	for in, want := range cases {
		assert.Equal(t, want, extractJSON(in))
	}
}
