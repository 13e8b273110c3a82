// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the minipack command-line interface.
//
// The root command loads configuration once (flags > MINIPACK_* environment >
// config file > defaults), attaches a logger to the command context and
// dispatches to build, graph, config and completion.
package cmd
