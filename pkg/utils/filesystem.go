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

// Package utils provides small filesystem and text helpers shared across
// VoiceTree packages.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStateDir ensures the .voicetree directory exists at the given base
// path, used for vector store persistence and other local state that
// doesn't belong in the markdown tree itself.
//
// If basePath is empty or ".", it creates ./.voicetree in the current
// directory. Otherwise, it creates {basePath}/.voicetree.
func EnsureStateDir(basePath string) (string, error) {
	var dir string
	if basePath == "" || basePath == "." {
		dir = ".voicetree"
	} else {
		dir = filepath.Join(basePath, ".voicetree")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	return dir, nil
}
