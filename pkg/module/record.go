// SPDX-License-Identifier: MPL-2.0

package module

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// EntryID is the ID of the entry module of every build.
const EntryID ID = 0

type (
	// ID identifies a module within a single build.
	ID int

	// Record is one module of the dependency graph.
	Record struct {
		// ID is unique in the build and assigned in first-encounter order.
		ID ID `json:"id" yaml:"id"`
		// Path is the canonical absolute path of the module source. It is the
		// deduplication key for the build.
		Path string `json:"path" yaml:"path"`
		// Dependencies are the import specifiers exactly as written, in source order.
		Dependencies []string `json:"dependencies" yaml:"dependencies"`
		// Code is the lowered module body. It refers to require, module and
		// exports as free variables.
		Code string `json:"-" yaml:"-"`
		// Mapping resolves each specifier in Dependencies to the ID of its record.
		Mapping *Mapping `json:"mapping" yaml:"mapping"`
	}

	// Mapping is an insertion-ordered map from import specifier to module ID.
	// The zero value is ready to use.
	Mapping struct {
		keys  []string
		index map[string]ID
	}

	// MappingEntry is a single specifier binding of a Mapping.
	MappingEntry struct {
		Specifier string
		ID        ID
	}
)

// NewRecord creates a record with an empty mapping.
func NewRecord(id ID, path string, deps []string, code string) *Record {
	return &Record{
		ID:           id,
		Path:         path,
		Dependencies: deps,
		Code:         code,
		Mapping:      &Mapping{},
	}
}

// Dir returns the directory containing the module source.
func (r *Record) Dir() string {
	return filepath.Dir(r.Path)
}

// String returns a short description used in logs and error messages.
func (r *Record) String() string {
	return fmt.Sprintf("#%d %s", r.ID, r.Path)
}

// Set binds specifier to id. The first binding of a specifier fixes its
// position in iteration order.
func (m *Mapping) Set(specifier string, id ID) {
	if m.index == nil {
		m.index = make(map[string]ID)
	}
	if _, exists := m.index[specifier]; !exists {
		m.keys = append(m.keys, specifier)
	}
	m.index[specifier] = id
}

// Lookup returns the ID bound to specifier.
func (m *Mapping) Lookup(specifier string) (ID, bool) {
	if m == nil || m.index == nil {
		return 0, false
	}
	id, ok := m.index[specifier]
	return id, ok
}

// Len returns the number of distinct specifiers.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the specifiers in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Entries returns the bindings in insertion order.
func (m *Mapping) Entries() []MappingEntry {
	if m == nil {
		return nil
	}
	out := make([]MappingEntry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, MappingEntry{Specifier: k, ID: m.index[k]})
	}
	return out
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Specifier)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", e.ID)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("mapping: expected object, got %v", tok)
	}
	*m = Mapping{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("mapping: expected string key, got %v", keyTok)
		}
		var id ID
		if err := dec.Decode(&id); err != nil {
			return fmt.Errorf("mapping: value for %q: %w", key, err)
		}
		m.Set(key, id)
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML encodes the mapping as a YAML mapping node in insertion order.
func (m *Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range m.Entries() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Specifier},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(int(e.ID))},
		)
	}
	return node, nil
}
