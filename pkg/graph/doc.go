// SPDX-License-Identifier: MPL-2.0

// Package graph discovers every module reachable from an entry file.
//
// The Builder walks the depends-on relation breadth first. Each canonical path
// is loaded, parsed and lowered exactly once; later references to the same path
// reuse its ID, which collapses diamonds and lets cycles terminate. Parsing and
// lowering are delegated to the injected Analyzer and Transformer so the
// traversal can be exercised with scripted fakes.
package graph
