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

// Package testutil holds fixtures shared across package test suites: a
// scripted fake implementing llm.Client, and small tree-building helpers,
// so every agent/pipeline test isn't reinventing the same fake.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/kadirpekel/voicetree/pkg/llm"
)

// ErrScriptExhausted is returned by FakeLLMClient.Complete once every
// scripted response has been consumed.
var ErrScriptExhausted = errors.New("testutil: llm script exhausted")

// FakeLLMClient replays one canned response per Complete call, in the
// order Responses were given, recording every request it was called with.
// Safe for concurrent use since pkg/pipeline and the agent packages may
// call Complete from test goroutines.
type FakeLLMClient struct {
	Responses []string
	ModelName string

	mu       sync.Mutex
	calls    int
	Requests []llm.Request
}

// NewFakeLLMClient returns a FakeLLMClient that replays responses in order.
func NewFakeLLMClient(responses ...string) *FakeLLMClient {
	return &FakeLLMClient{Responses: responses, ModelName: "fake-model"}
}

// Complete implements llm.Client.
func (f *FakeLLMClient) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	i := f.calls
	f.calls++
	if i >= len(f.Responses) {
		return llm.Response{}, ErrScriptExhausted
	}
	return llm.Response{Text: f.Responses[i]}, nil
}

// Model implements llm.Client.
func (f *FakeLLMClient) Model() string { return f.ModelName }

// Close implements llm.Client.
func (f *FakeLLMClient) Close() error { return nil }

// CallCount reports how many times Complete has been called.
func (f *FakeLLMClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ llm.Client = (*FakeLLMClient)(nil)
