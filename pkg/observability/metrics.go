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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics collection for the VoiceTree
// pipeline: LLM calls made by the append/optimizer/orphan-connect agents,
// fragment-processing cycles, node mutations applied to the tree, and the
// HTTP surface exposed by cmd/voicetree.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	llmCalls        *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec
	llmTokensInput  *prometheus.CounterVec
	llmTokensOutput *prometheus.CounterVec
	llmErrors       *prometheus.CounterVec

	fragmentsProcessed *prometheus.CounterVec
	fragmentDuration   *prometheus.HistogramVec
	nodeMutations      *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance from configuration. It returns
// (nil, nil) when metrics are disabled, matching the nil-safe recording
// pattern every Record* method below follows.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.initLLMMetrics()
	m.initPipelineMetrics()
	m.initHTTPMetrics()

	return m, nil
}

func (m *Metrics) initLLMMetrics() {
	m.llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM API calls",
		},
		[]string{"agent", "model"},
	)

	m.llmCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "LLM API call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to 204s
		},
		[]string{"agent", "model"},
	)

	m.llmTokensInput = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "llm",
			Name:      "tokens_input_total",
			Help:      "Total number of input tokens consumed",
		},
		[]string{"agent", "model"},
	)

	m.llmTokensOutput = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "llm",
			Name:      "tokens_output_total",
			Help:      "Total number of output tokens generated",
		},
		[]string{"agent", "model"},
	)

	m.llmErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Total number of LLM API errors",
		},
		[]string{"agent", "model"},
	)

	m.registry.MustRegister(m.llmCalls, m.llmCallDuration, m.llmTokensInput, m.llmTokensOutput, m.llmErrors)
}

func (m *Metrics) initPipelineMetrics() {
	m.fragmentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "pipeline",
			Name:      "fragments_processed_total",
			Help:      "Total number of transcript fragments processed",
		},
		[]string{"outcome"},
	)

	m.fragmentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "pipeline",
			Name:      "fragment_cycle_duration_seconds",
			Help:      "Duration of a single ProcessFragment cycle in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		nil,
	)

	m.nodeMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "pipeline",
			Name:      "node_mutations_total",
			Help:      "Total number of tree node mutations applied, by action kind",
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(m.fragmentsProcessed, m.fragmentDuration, m.nodeMutations)
}

func (m *Metrics) initHTTPMetrics() {
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.registry.MustRegister(m.httpRequests, m.httpDuration)
}

// RecordLLMCall records one LLM API call made on behalf of agent.
func (m *Metrics) RecordLLMCall(agent, model string, duration time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(agent, model).Inc()
	m.llmCallDuration.WithLabelValues(agent, model).Observe(duration.Seconds())
	if inputTokens > 0 {
		m.llmTokensInput.WithLabelValues(agent, model).Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokensOutput.WithLabelValues(agent, model).Add(float64(outputTokens))
	}
	if err != nil {
		m.llmErrors.WithLabelValues(agent, model).Inc()
	}
}

// RecordFragmentProcessed records one completed ProcessFragment cycle.
func (m *Metrics) RecordFragmentProcessed(duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fragmentsProcessed.WithLabelValues(outcome).Inc()
	m.fragmentDuration.WithLabelValues().Observe(duration.Seconds())
}

// RecordNodeMutation records one applied tree mutation of the given kind
// ("append", "create", "update").
func (m *Metrics) RecordNodeMutation(kind string) {
	if m == nil {
		return
	}
	m.nodeMutations.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records one HTTP request/response.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, statusCodeLabel(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func statusCodeLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
