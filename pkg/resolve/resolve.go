// SPDX-License-Identifier: MPL-2.0

// Package resolve turns import specifiers into canonical absolute paths.
//
// Resolution is a path computation only: the specifier is joined onto the
// directory of the requesting module (absolute specifiers stand alone), the
// result is cleaned, and symlinks are evaluated when they can be. No extension
// or index-file inference is performed; a specifier must name a file. Whether
// that file exists is discovered later, when the graph builder loads it.
package resolve

import (
	"path/filepath"
	"strings"
)

// Resolver computes canonical module paths.
type Resolver struct {
	// FollowSymlinks evaluates symbolic links so that a module reachable
	// through several links is loaded once.
	FollowSymlinks bool
}

// New returns a Resolver that follows symlinks.
func New() *Resolver {
	return &Resolver{FollowSymlinks: true}
}

// Resolve returns the canonical path for specifier as referenced from fromDir.
// fromDir is expected to be absolute; a relative fromDir is made absolute
// against the working directory.
func (r *Resolver) Resolve(specifier, fromDir string) string {
	spec := filepath.FromSlash(specifier)
	var joined string
	if filepath.IsAbs(spec) {
		joined = filepath.Clean(spec)
	} else {
		joined = filepath.Join(fromDir, spec)
	}
	if !filepath.IsAbs(joined) {
		if abs, err := filepath.Abs(joined); err == nil {
			joined = abs
		}
	}
	return r.canonical(joined)
}

// Entry canonicalizes an entry path given on the command line.
func (r *Resolver) Entry(path string) string {
	return r.Resolve(path, ".")
}

// canonical evaluates symlinks when enabled. A path that cannot be evaluated
// (typically because it does not exist) is returned cleaned so that the load
// failure is reported against the path the user wrote.
func (r *Resolver) canonical(path string) string {
	if !r.FollowSymlinks {
		return path
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return real
}

// IsRelative reports whether specifier is written relative to its module
// ("./x.js" or "../x.js").
func IsRelative(specifier string) bool {
	s := filepath.ToSlash(specifier)
	return s == "." || s == ".." || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}
