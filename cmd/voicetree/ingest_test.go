package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFragments_SplitsOnBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.txt")
	content := "first line\nsecond line\n\nthird fragment\n\n\nfourth fragment\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fragments, err := readFragments(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"first line second line",
		"third fragment",
		"fourth fragment",
	}, fragments)
}

func TestReadFragments_MissingFileErrors(t *testing.T) {
	_, err := readFragments("/nonexistent/path/transcript.txt")
	assert.Error(t, err)
}
