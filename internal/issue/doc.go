// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// pages rendered with glamour when a build or configuration step fails.
package issue
