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
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor generates the JSON schema string for a response type from its
// struct tags, so the schema embedded in a prompt and the Go struct decoding
// the response can never drift apart.
//
// Supported tags:
//   - json:"name"                     - field name
//   - json:",omitempty"                - optional field
//   - jsonschema:"required"            - explicitly mark as required
//   - jsonschema:"description=..."     - field description
//   - jsonschema:"enum=val1,enum=val2" - allowed values
func SchemaFor[T any]() (string, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("llm: marshal schema: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("llm: normalize schema: %w", err)
	}
	delete(raw, "$schema")
	delete(raw, "$id")

	out, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("llm: marshal normalized schema: %w", err)
	}
	return string(out), nil
}

// MustSchemaFor is SchemaFor without the error return, for building package
// level schema strings at init time from types that are known to reflect
// cleanly.
func MustSchemaFor[T any]() string {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}
