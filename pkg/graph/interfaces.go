// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"os"
)

type (
	// SyntaxTree is the opaque result of Analyzer.Parse. The builder never
	// inspects it; it is handed back to the same Analyzer and to the Transformer.
	SyntaxTree any

	// Analyzer turns module source into a syntax tree and lists its imports.
	Analyzer interface {
		// Parse returns the syntax tree for src. path is used for diagnostics.
		Parse(path string, src []byte) (SyntaxTree, error)
		// Imports returns the raw import specifiers of tree in source order.
		Imports(tree SyntaxTree) []string
	}

	// Transformer lowers a syntax tree into code that runs with require,
	// module and exports bound as free variables.
	Transformer interface {
		Lower(tree SyntaxTree) (string, error)
	}

	// Sourced is implemented by syntax trees that retain the text they were
	// parsed from. Transformers that work on text rather than on a tree need it.
	Sourced interface {
		SourcePath() string
		SourceText() []byte
	}

	// FileReader loads module sources.
	FileReader interface {
		ReadFile(path string) ([]byte, error)
	}

	// OSReader reads module sources from the local filesystem.
	OSReader struct{}
)

// ReadFile implements FileReader.
func (OSReader) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "read", Path: path, Err: ErrIsDirectory}
	}
	return os.ReadFile(path)
}
