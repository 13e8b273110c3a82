// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"errors"
	"path/filepath"

	"github.com/minipack/minipack/internal/dag"
	"github.com/minipack/minipack/pkg/module"
)

type (
	// Manifest describes a build for humans and tools. Paths are relative to
	// Root, the directory of the entry module, using forward slashes.
	Manifest struct {
		Entry   string           `json:"entry" yaml:"entry"`
		Root    string           `json:"root" yaml:"root"`
		Bytes   int              `json:"bytes,omitempty" yaml:"bytes,omitempty"`
		Modules []ManifestModule `json:"modules" yaml:"modules"`
	}

	// ManifestModule is one module of a Manifest.
	ManifestModule struct {
		ID           module.ID       `json:"id" yaml:"id"`
		Path         string          `json:"path" yaml:"path"`
		Dependencies []string        `json:"dependencies" yaml:"dependencies"`
		Mapping      *module.Mapping `json:"mapping" yaml:"mapping"`
	}
)

// Manifest returns the manifest of a successful build.
func (r *Result) Manifest() *Manifest {
	m := NewManifest(r.Modules)
	m.Bytes = len(r.Output)
	return m
}

// NewManifest describes records, which must be a built graph.
func NewManifest(records []*module.Record) *Manifest {
	if len(records) == 0 {
		return &Manifest{Modules: []ManifestModule{}}
	}
	root := records[0].Dir()
	m := &Manifest{
		Entry:   relative(root, records[0].Path),
		Root:    root,
		Modules: make([]ManifestModule, 0, len(records)),
	}
	for _, rec := range records {
		deps := rec.Dependencies
		if deps == nil {
			deps = []string{}
		}
		m.Modules = append(m.Modules, ManifestModule{
			ID:           rec.ID,
			Path:         relative(root, rec.Path),
			Dependencies: deps,
			Mapping:      rec.Mapping,
		})
	}
	return m
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// LoadOrder lists module IDs so that every module follows the modules it
// imports. When imports form a cycle the acyclic part is returned in order
// followed by the remaining IDs ascending, together with a *dag.CycleError.
func LoadOrder(records []*module.Record) ([]module.ID, error) {
	g := dag.New[module.ID]()
	for _, rec := range records {
		g.AddNode(rec.ID)
	}
	for _, rec := range records {
		for _, e := range rec.Mapping.Entries() {
			g.AddEdge(e.ID, rec.ID)
		}
	}

	order, err := g.TopologicalSort()
	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		placed := make(map[module.ID]bool, len(order))
		for _, id := range order {
			placed[id] = true
		}
		for _, rec := range records {
			if !placed[rec.ID] {
				order = append(order, rec.ID)
			}
		}
	}
	return order, err
}
