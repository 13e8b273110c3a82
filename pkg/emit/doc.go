// SPDX-License-Identifier: MPL-2.0

// Package emit serializes a module graph into one self-contained script.
//
// Emission is two steps. NewProgram turns validated records into a Program,
// the structured form of the artifact: the module table (one wrapper function
// and one specifier mapping per module) plus the runtime parameters. A Program
// is then rendered through the embedded runtime template. Keeping the steps
// apart lets quoting and layout be checked without building a graph.
//
// The emitted runtime defines require(id), which on first call creates the
// module object, caches it, and only then runs the module code with a
// module-local require. Cached module objects are returned on later calls, so
// every module executes at most once and a cyclic require observes the
// exports populated so far.
package emit
