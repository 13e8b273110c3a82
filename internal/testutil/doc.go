// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that build module trees on disk
// and manipulate process state (working directory, environment, home).
//
// Helpers fail the test immediately on error so call sites stay short.
package testutil
