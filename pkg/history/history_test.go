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

package history

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_InsertsSpaceAtBoundary(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)

	require.NoError(t, m.Append("hello", 1000))
	require.NoError(t, m.Append("world", 1000))

	assert.Equal(t, "hello world", m.Get(1000))
}

func TestAppend_NoDoubleSpaceWhenBoundaryAlreadyWhitespace(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)

	require.NoError(t, m.Append("hello ", 1000))
	require.NoError(t, m.Append("world", 1000))

	assert.Equal(t, "hello world", m.Get(1000))
}

// T6: after append, len(get()) <= L, and the kept tail does not begin
// mid-word when whitespace exists to cut at.
func TestAppend_TrimsAtWhitespaceBoundary(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)

	require.NoError(t, m.Append("the quick brown fox jumps over the lazy dog", 15))

	got := m.Get(15)
	assert.LessOrEqual(t, len(got), 15)
	if got != "" {
		assert.NotEqual(t, byte(' '), got[0], "kept tail should not start with the trim space itself")
	}
}

// Single massive word with no whitespace to cut at falls back to a hard
// character trim.
func TestAppend_HardTrimWhenNoWhitespaceInTail(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)

	longWord := strings.Repeat("a", 50)
	require.NoError(t, m.Append(longWord, 10))

	assert.Equal(t, 10, len(m.Get(10)))
}

func TestGet_NonPositiveMaxLengthReturnsEmpty(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	require.NoError(t, m.Append("some text", 1000))

	assert.Empty(t, m.Get(0))
	assert.Empty(t, m.Get(-5))
}

func TestNew_LoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.log")

	seed, err := New(path)
	require.NoError(t, err)
	require.NoError(t, seed.Append("previously persisted", 1000))

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Contains(t, reloaded.Get(1000), "previously persisted")
}

func TestNew_MissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.log")

	m, err := New(path)
	require.NoError(t, err)
	assert.Empty(t, m.Get(1000))
}
