// SPDX-License-Identifier: MPL-2.0

// Package bundler turns an entry file into a single executable script.
//
// A Bundler wires the graph builder to the emitter: Build discovers every
// module reachable from the entry, emits the bundle and optionally minifies
// it. Any failure aborts the build; no partial output is returned.
package bundler

import (
	"context"
	"fmt"

	"github.com/minipack/minipack/internal/ctxlog"
	"github.com/minipack/minipack/internal/jsmod"
	"github.com/minipack/minipack/pkg/emit"
	"github.com/minipack/minipack/pkg/graph"
	"github.com/minipack/minipack/pkg/module"
	"github.com/minipack/minipack/pkg/resolve"
)

type (
	// Minifier compresses a finished bundle.
	Minifier interface {
		Minify(bundle string) (string, error)
	}

	// MinifierFunc adapts a function to Minifier.
	MinifierFunc func(bundle string) (string, error)

	// Options configures a Bundler. Zero values select the defaults noted on
	// each field.
	Options struct {
		// Analyzer parses modules. Defaults to jsmod.NewAnalyzer().
		Analyzer graph.Analyzer
		// Transformer lowers modules. Defaults to jsmod.Lowerer.
		Transformer graph.Transformer
		// Resolver canonicalizes paths. Defaults to resolve.New().
		Resolver *resolve.Resolver
		// Reader loads sources. Defaults to the local filesystem.
		Reader graph.FileReader
		// Emit configures the emitted script.
		Emit emit.Options
		// Minifier, when set, is applied to the emitted script.
		Minifier Minifier
	}

	// Bundler builds bundles. It holds no per-build state.
	Bundler struct {
		builder  *graph.Builder
		emitter  *emit.Emitter
		minifier Minifier
	}

	// Result is the outcome of a successful build.
	Result struct {
		// Entry is the canonical path of the entry module.
		Entry string
		// Modules is the module graph in ID order.
		Modules []*module.Record
		// Output is the bundle text.
		Output string
	}
)

// Minify implements Minifier.
func (f MinifierFunc) Minify(bundle string) (string, error) {
	return f(bundle)
}

// New creates a Bundler. Invalid emit options are reported here rather than
// on the first build.
func New(opts Options) (*Bundler, error) {
	if opts.Analyzer == nil {
		opts.Analyzer = jsmod.NewAnalyzer()
	}
	if opts.Transformer == nil {
		opts.Transformer = jsmod.Lowerer{}
	}

	emitter, err := emit.New(opts.Emit)
	if err != nil {
		return nil, err
	}

	var builderOpts []graph.Option
	if opts.Resolver != nil {
		builderOpts = append(builderOpts, graph.WithResolver(opts.Resolver))
	}
	if opts.Reader != nil {
		builderOpts = append(builderOpts, graph.WithReader(opts.Reader))
	}

	return &Bundler{
		builder:  graph.NewBuilder(opts.Analyzer, opts.Transformer, builderOpts...),
		emitter:  emitter,
		minifier: opts.Minifier,
	}, nil
}

// Graph discovers the module graph without emitting a bundle.
func (b *Bundler) Graph(ctx context.Context, entryPath string) ([]*module.Record, error) {
	return b.builder.Build(ctx, entryPath)
}

// Build discovers the module graph of entryPath and emits it.
func (b *Bundler) Build(ctx context.Context, entryPath string) (*Result, error) {
	records, err := b.builder.Build(ctx, entryPath)
	if err != nil {
		return nil, err
	}

	out, err := b.emitter.Emit(records)
	if err != nil {
		return nil, err
	}
	if b.minifier != nil {
		if out, err = b.minifier.Minify(out); err != nil {
			return nil, fmt.Errorf("minify: %w", err)
		}
	}

	ctxlog.FromContext(ctx).Info("bundle emitted", "modules", len(records), "bytes", len(out))
	return &Result{Entry: records[0].Path, Modules: records, Output: out}, nil
}

// Bundle is Build returning only the bundle text.
func (b *Bundler) Bundle(ctx context.Context, entryPath string) (string, error) {
	res, err := b.Build(ctx, entryPath)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}
