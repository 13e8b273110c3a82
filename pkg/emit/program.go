// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/js"

	"github.com/minipack/minipack/pkg/module"
)

// ErrInvalidGlobalName is returned when Options.GlobalName is not a plain
// JavaScript identifier.
var ErrInvalidGlobalName = errors.New("invalid global name")

type (
	// Program is the structured form of an emitted bundle.
	Program struct {
		// GlobalName, when set, receives the entry module's exports.
		GlobalName string
		// Banner lines are emitted as leading line comments.
		Banner []string
		// EntryID is the module required on load.
		EntryID module.ID
		// Modules is the module table in ID order.
		Modules []Entry
	}

	// Entry is one row of the module table.
	Entry struct {
		ID module.ID
		// Code is the module body placed inside the wrapper function.
		Code string
		// Mapping is the specifier to ID object literal, already quoted.
		Mapping string
	}
)

// NewProgram validates records and builds the Program that emits them.
func NewProgram(records []*module.Record, opts Options) (*Program, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := module.Validate(records); err != nil {
		return nil, err
	}

	p := &Program{
		GlobalName: opts.GlobalName,
		Banner:     bannerLines(opts.Banner),
		EntryID:    module.EntryID,
		Modules:    make([]Entry, 0, len(records)),
	}
	for _, rec := range records {
		m := rec.Mapping
		if m == nil {
			m = &module.Mapping{}
		}
		mapping, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode mapping of %s: %w", rec, err)
		}
		p.Modules = append(p.Modules, Entry{
			ID:      rec.ID,
			Code:    strings.TrimRight(rec.Code, "\r\n"),
			Mapping: string(mapping),
		})
	}
	return p, nil
}

// Line and paragraph separators terminate a line comment in JavaScript.
var commentSafe = strings.NewReplacer("\u2028", " ", "\u2029", " ", "\r", "")

func bannerLines(banner string) []string {
	if banner == "" {
		return nil
	}
	banner = strings.ReplaceAll(banner, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(banner, "\n"), "\n")
	for i, line := range lines {
		lines[i] = commentSafe.Replace(line)
	}
	return lines
}

// IsIdentifier reports whether name can be declared with var.
func IsIdentifier(name string) bool {
	if !js.AsIdentifierName([]byte(name)) {
		return false
	}
	if tt, ok := js.Keywords[name]; ok {
		return js.IsIdentifier(tt)
	}
	return true
}
