// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session tracks per-run metadata for a single continuous
// transcript-processing run: when it started and ended, how many
// fragments were processed, and how many tree mutations of each kind
// were applied. Unlike a conversational agent framework, VoiceTree has no
// per-user or per-app session scoping — one run corresponds to one
// recording (or one replay) from start to finish.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id has no matching run.
var ErrNotFound = errors.New("session: not found")

// Session is a snapshot of one run's accumulated metadata.
type Session struct {
	ID                 string
	OutputDir          string
	StartedAt          time.Time
	EndedAt            time.Time
	FragmentsProcessed int
	NodeMutations      map[string]int // keyed by lowercased treeapply.Kind
}

// Active reports whether the run has not yet been ended.
func (s Session) Active() bool { return s.EndedAt.IsZero() }

// Manager tracks in-memory sessions for the lifetime of the process. Runs
// are not persisted; cmd/voicetree starts one at process start and ends it
// at shutdown.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Start begins a new run against outputDir and returns its id.
func (m *Manager) Start(_ context.Context, outputDir string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.sessions[id] = &Session{
		ID:            id,
		OutputDir:     outputDir,
		StartedAt:     time.Now(),
		NodeMutations: make(map[string]int),
	}
	return id
}

// RecordFragment increments the processed-fragment counter for id. A
// missing id is a no-op: callers that never started a session (most
// tests) don't need to guard every call.
func (m *Manager) RecordFragment(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.FragmentsProcessed++
	}
}

// RecordMutation increments the count for the given action kind.
func (m *Manager) RecordMutation(id, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.NodeMutations[kind]++
	}
}

// End marks a run finished and returns its final snapshot.
func (m *Manager) End(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.EndedAt = time.Now()
	return *s, nil
}

// Get returns a copy of the current state of id.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}
