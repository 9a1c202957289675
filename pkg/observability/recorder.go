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

package observability

import (
	"net/http"
	"sync"
	"time"
)

// Recorder is the metrics-recording surface pkg/pipeline and cmd/voicetree
// depend on, so callers that don't care about metrics (most tests) can pass
// NoopMetrics{} instead of standing up a Prometheus registry.
type Recorder interface {
	RecordLLMCall(agent, model string, duration time.Duration, inputTokens, outputTokens int, err error)
	RecordFragmentProcessed(duration time.Duration, err error)
	RecordNodeMutation(kind string)
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
	Handler() http.Handler
}

var (
	_ Recorder = (*Metrics)(nil)
	_ Recorder = NoopMetrics{}
)

// NoopMetrics is a Recorder that discards everything, the default when
// metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordLLMCall(_, _ string, _ time.Duration, _, _ int, _ error) {}
func (NoopMetrics) RecordFragmentProcessed(_ time.Duration, _ error)              {}
func (NoopMetrics) RecordNodeMutation(_ string)                                   {}
func (NoopMetrics) RecordHTTPRequest(_, _ string, _ int, _ time.Duration)         {}

// Handler returns a handler that reports metrics as unavailable.
func (NoopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("metrics not enabled"))
	})
}

var (
	globalRecorder Recorder
	recorderMu     sync.RWMutex
)

// SetGlobalRecorder installs the process-wide Recorder, for components
// constructed without direct access to the Orchestrator's configured
// Recorder. No package outside this one installs or reads it.
func SetGlobalRecorder(r Recorder) {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	globalRecorder = r
}

// GlobalRecorder returns the process-wide Recorder, defaulting to
// NoopMetrics{} if none has been installed.
func GlobalRecorder() Recorder {
	recorderMu.RLock()
	defer recorderMu.RUnlock()
	if globalRecorder == nil {
		return NoopMetrics{}
	}
	return globalRecorder
}
