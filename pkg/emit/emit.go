// SPDX-License-Identifier: MPL-2.0

package emit

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/minipack/minipack/pkg/module"
)

//go:embed runtime.js.tmpl
var runtimeSource string

var runtimeTemplate = template.Must(template.New("runtime").Parse(runtimeSource))

type (
	// Options configures the emitted artifact.
	Options struct {
		// GlobalName assigns the entry exports to a top-level var.
		GlobalName string
		// Banner is prepended as line comments.
		Banner string
	}

	// Emitter renders module graphs with fixed options.
	Emitter struct {
		opts Options
	}
)

func (o Options) validate() error {
	if o.GlobalName != "" && !IsIdentifier(o.GlobalName) {
		return fmt.Errorf("%w: %q", ErrInvalidGlobalName, o.GlobalName)
	}
	return nil
}

// New creates an Emitter, rejecting invalid options up front.
func New(opts Options) (*Emitter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Emitter{opts: opts}, nil
}

// Emit renders records with default options.
func Emit(records []*module.Record) (string, error) {
	return (&Emitter{}).Emit(records)
}

// Emit renders records into the bundle text. Invalid graphs are refused with
// a *module.InvalidGraphError.
func (e *Emitter) Emit(records []*module.Record) (string, error) {
	p, err := NewProgram(records, e.opts)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := p.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Render writes the bundle text for p to w.
func (p *Program) Render(w io.Writer) error {
	if err := runtimeTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render bundle: %w", err)
	}
	return nil
}
