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

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// MaxAttempts is the retry ceiling shared by every LLM call. On persistent
// failure past this many attempts, the caller fails fast rather than
// retrying indefinitely.
const MaxAttempts = 3

// baseBackoff is the delay before the second attempt; it doubles each
// subsequent attempt. The schedule is fixed; no Retry-After header is
// consulted.
const baseBackoff = 250 * time.Millisecond

// CompleteWithRetry calls client.Complete up to MaxAttempts times,
// retrying on ErrUnavailable, and returns the last error (wrapped) if every
// attempt fails.
func CompleteWithRetry(ctx context.Context, client Client, req Request) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !errors.Is(err, ErrUnavailable) {
			return Response{}, err
		}

		slog.Warn("llm: call failed, retrying", "attempt", attempt, "max_attempts", MaxAttempts, "error", err)
		if attempt == MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(baseBackoff * time.Duration(1<<(attempt-1))):
		}
	}
	return Response{}, fmt.Errorf("%w: giving up after %d attempts: %v", ErrUnavailable, MaxAttempts, lastErr)
}

// CompleteJSON wraps CompleteWithRetry and unmarshals the response text
// into out, retrying malformed output the same way transport failures are
// retried (malformed output also gets up to MaxAttempts tries before the
// cycle fails).
func CompleteJSON(ctx context.Context, client Client, req Request, out any) error {
	if req.JSONSchema != "" {
		req.System += "\n\nJSON schema:\n" + req.JSONSchema
	}
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		resp, err := client.Complete(ctx, req)
		if err != nil {
			if !errors.Is(err, ErrUnavailable) {
				return err
			}
			lastErr = err
		} else if jerr := json.Unmarshal([]byte(extractJSON(resp.Text)), out); jerr != nil {
			lastErr = fmt.Errorf("%w: %v", ErrMalformedOutput, jerr)
		} else {
			return nil
		}

		slog.Warn("llm: structured call failed, retrying", "attempt", attempt, "max_attempts", MaxAttempts, "error", lastErr)
		if attempt == MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseBackoff * time.Duration(1<<(attempt-1))):
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", MaxAttempts, lastErr)
}

// extractJSON trims common wrapping (markdown code fences) that chat
// models tend to add around JSON output even when explicitly asked not to.
func extractJSON(text string) string {
	s := text
	if i := indexByte(s, '{'); i >= 0 {
		if j := lastIndexByte(s, '}'); j > i {
			return s[i : j+1]
		}
	}
	if i := indexByte(s, '['); i >= 0 {
		if j := lastIndexByte(s, ']'); j > i {
			return s[i : j+1]
		}
	}
	return s
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
