// SPDX-License-Identifier: MPL-2.0

// Package downlevel lowers module sources and finished bundles with esbuild.
//
// Transformer is an alternative graph.Transformer: it converts ES module syntax
// to CommonJS and lowers newer syntax to a configured language target. Minify
// compresses an emitted bundle.
package downlevel

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/minipack/minipack/pkg/graph"
	"github.com/minipack/minipack/pkg/module"
)

// DefaultTarget is the language target used when none is configured.
const DefaultTarget = "es2015"

var (
	// ErrUnknownTarget is returned by ParseTarget for unsupported names.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrNoSource is returned when a syntax tree does not carry its source text.
	ErrNoSource = errors.New("syntax tree does not retain its source")

	targetNames = []string{"es5", "es2015", "es2016", "es2017", "es2018", "es2019", "es2020", "es2021", "es2022", "esnext"}

	targets = map[string]api.Target{
		"es5":    api.ES5,
		"es2015": api.ES2015,
		"es2016": api.ES2016,
		"es2017": api.ES2017,
		"es2018": api.ES2018,
		"es2019": api.ES2019,
		"es2020": api.ES2020,
		"es2021": api.ES2021,
		"es2022": api.ES2022,
		"esnext": api.ESNext,
	}
)

type (
	// Transformer implements graph.Transformer with esbuild.
	Transformer struct {
		target api.Target
	}

	// MessagesError reports the errors esbuild emitted for one input.
	MessagesError struct {
		Messages []api.Message
	}
)

var _ graph.Transformer = (*Transformer)(nil)

// Targets lists the accepted target names, oldest first.
func Targets() []string {
	return slices.Clone(targetNames)
}

// ParseTarget maps a target name such as "es2017" to its esbuild value.
// Matching is case insensitive and the empty name selects DefaultTarget.
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		name = DefaultTarget
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w %q (valid: %s)", ErrUnknownTarget, name, strings.Join(Targets(), ", "))
	}
	return t, nil
}

// New returns a Transformer producing code for target.
func New(target string) (*Transformer, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &Transformer{target: t}, nil
}

// Lower implements graph.Transformer. The tree must implement graph.Sourced.
// esbuild diagnostics are returned as a *module.ParseError.
func (t *Transformer) Lower(tree graph.SyntaxTree) (string, error) {
	src, ok := tree.(graph.Sourced)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrNoSource, tree)
	}

	res := api.Transform(string(src.SourceText()), api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     t.target,
		Sourcefile: src.SourcePath(),
		LogLevel:   api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		return "", &module.ParseError{Path: src.SourcePath(), Cause: &MessagesError{Messages: res.Errors}}
	}
	return string(res.Code), nil
}

// Minify compresses a finished bundle for target. Top-level names, including
// a global name assigned by the bundle, are preserved.
func Minify(bundle, target string) (string, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return "", err
	}
	res := api.Transform(bundle, api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            t,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		return "", fmt.Errorf("minify bundle: %w", &MessagesError{Messages: res.Errors})
	}
	return string(res.Code), nil
}

func (e *MessagesError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		if loc := m.Location; loc != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", loc.Line, loc.Column+1, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}
