// SPDX-License-Identifier: MPL-2.0

// Package module defines the module record produced by the graph builder and
// consumed by the bundle emitter.
//
// A build yields an ordered slice of records. The entry module always has ID 0,
// IDs are dense in discovery order, and each canonical path appears at most once.
// Validate checks these invariants for a finished slice.
package module
