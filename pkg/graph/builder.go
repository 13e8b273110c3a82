// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/minipack/minipack/internal/ctxlog"
	"github.com/minipack/minipack/pkg/module"
	"github.com/minipack/minipack/pkg/resolve"
)

// ErrIsDirectory is reported when a specifier resolves to a directory.
// Directory index files are not inferred.
var ErrIsDirectory = errors.New("is a directory")

type (
	// Builder discovers the module graph reachable from an entry file.
	// A Builder holds no per-build state and may be reused and shared.
	Builder struct {
		analyzer    Analyzer
		transformer Transformer
		resolver    *resolve.Resolver
		reader      FileReader
	}

	// Option configures a Builder.
	Option func(*Builder)

	// pending is a discovered module waiting to be loaded. specifier and
	// from describe the first reference, which is what load failures report.
	pending struct {
		id        module.ID
		path      string
		specifier string
		from      string
	}

	// build is the state of a single Build call.
	build struct {
		ids     map[string]module.ID
		queue   []pending
		records []*module.Record
	}
)

// WithResolver replaces the default symlink-following resolver.
func WithResolver(r *resolve.Resolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// WithReader replaces the filesystem reader.
func WithReader(r FileReader) Option {
	return func(b *Builder) { b.reader = r }
}

// NewBuilder creates a Builder that parses with analyzer and lowers with transformer.
func NewBuilder(analyzer Analyzer, transformer Transformer, opts ...Option) *Builder {
	b := &Builder{
		analyzer:    analyzer,
		transformer: transformer,
		resolver:    resolve.New(),
		reader:      OSReader{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns every module reachable from entryPath in breadth-first
// discovery order. The entry has ID 0 and records[i].ID == i.
//
// The first module that cannot be loaded aborts the build with a
// *module.UnresolvedPathError; the first that cannot be parsed or lowered
// aborts it with a *module.ParseError. No partial graph is returned.
func (b *Builder) Build(ctx context.Context, entryPath string) ([]*module.Record, error) {
	if b.analyzer == nil || b.transformer == nil {
		return nil, errors.New("graph builder requires an analyzer and a transformer")
	}
	logger := ctxlog.FromContext(ctx)

	st := &build{ids: make(map[string]module.ID)}
	st.discover(b.resolver.Entry(entryPath), entryPath, "")

	for len(st.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := st.queue[0]
		st.queue = st.queue[1:]

		rec, err := b.load(item)
		if err != nil {
			return nil, err
		}
		st.records = append(st.records, rec)

		for _, spec := range rec.Dependencies {
			if _, seen := rec.Mapping.Lookup(spec); seen {
				continue
			}
			if !resolve.IsRelative(spec) && !filepath.IsAbs(filepath.FromSlash(spec)) {
				logger.Warn("bare specifier resolved against importing module directory",
					"specifier", spec, "from", rec.Path)
			}
			rec.Mapping.Set(spec, st.discover(b.resolver.Resolve(spec, rec.Dir()), spec, rec.Path))
		}

		logger.Debug("module loaded", "id", rec.ID, "path", rec.Path, "deps", len(rec.Dependencies))
	}

	logger.Info("module graph built", "entry", st.records[0].Path, "modules", len(st.records))
	return st.records, nil
}

// discover returns the ID of path, assigning the next one and queueing the
// module for loading if the path has not been seen in this build.
func (st *build) discover(path, specifier, from string) module.ID {
	if id, ok := st.ids[path]; ok {
		return id
	}
	id := module.ID(len(st.ids))
	st.ids[path] = id
	st.queue = append(st.queue, pending{id: id, path: path, specifier: specifier, from: from})
	return id
}

func (b *Builder) load(item pending) (*module.Record, error) {
	src, err := b.reader.ReadFile(item.path)
	if err != nil {
		return nil, &module.UnresolvedPathError{Specifier: item.specifier, FromPath: item.from, Cause: err}
	}

	tree, err := b.analyzer.Parse(item.path, src)
	if err != nil {
		return nil, asParseError(item.path, err)
	}
	deps := b.analyzer.Imports(tree)

	code, err := b.transformer.Lower(tree)
	if err != nil {
		return nil, asParseError(item.path, fmt.Errorf("lower: %w", err))
	}

	return module.NewRecord(item.id, item.path, deps, code), nil
}

func asParseError(path string, err error) error {
	var pe *module.ParseError
	if errors.As(err, &pe) && pe.Path == path {
		return pe
	}
	return &module.ParseError{Path: path, Cause: err}
}
