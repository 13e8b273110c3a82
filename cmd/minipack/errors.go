// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/issue"
	"github.com/minipack/minipack/pkg/emit"
	"github.com/minipack/minipack/pkg/module"
)

// classifyError turns a bundling failure into an ActionableError that points
// at the matching catalog issue. Errors that already are actionable pass
// through unchanged.
func classifyError(err error, entry string) *issue.ActionableError {
	var actionable *issue.ActionableError
	if errors.As(err, &actionable) {
		return actionable
	}

	ec := issue.NewErrorContext().WithOperation("bundle").WithResource(entry).Wrap(err)

	var (
		unresolved *module.UnresolvedPathError
		parseErr   *module.ParseError
	)
	switch {
	case errors.Is(err, context.Canceled):
		ec.WithOperation("bundle (interrupted)")
	case errors.Is(err, fs.ErrPermission):
		ec.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check the read permissions of the module files")
	case errors.As(err, &unresolved):
		if unresolved.FromPath == "" {
			ec.WithIssue(issue.EntryNotFoundId).
				WithSuggestion("Check the entry path passed to 'minipack build'")
		} else {
			ec.WithIssue(issue.UnresolvedPathId).
				WithResource(unresolved.FromPath).
				WithSuggestion(fmt.Sprintf("Check that %q exists relative to the importing file", unresolved.Specifier)).
				WithSuggestion("Specifiers are resolved as file paths; include the file extension")
		}
	case errors.As(err, &parseErr):
		ec.WithIssue(issue.ParseFailedId).
			WithResource(parseErr.Path).
			WithSuggestion("Fix the syntax error reported above").
			WithSuggestion("Try '--transformer esbuild' for syntax newer than the native lowering supports")
	case errors.Is(err, module.ErrInvalidGraph):
		ec.WithIssue(issue.InvalidGraphId)
	case errors.Is(err, emit.ErrInvalidGlobalName):
		ec.WithOperation("configure bundle").
			WithIssue(issue.InvalidGlobalNameId).
			WithSuggestion("Use a plain JavaScript identifier such as 'MyLib'")
	}
	return ec.Build()
}

// reportError prints err to the command's stderr and returns an ExitError
// carrying code. In verbose mode the catalog page of the issue follows.
func reportError(cmd *cobra.Command, err error, verbose bool, code int) error {
	w := cmd.ErrOrStderr()

	var actionable *issue.ActionableError
	if !errors.As(err, &actionable) {
		actionable = issue.NewErrorContext().WithOperation(cmd.Name()).Wrap(err).Build()
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+actionable.Format(verbose))

	if verbose && actionable.Issue != 0 {
		if page := issue.Get(actionable.Issue); page != nil {
			style := "auto"
			if ctx := cmd.Context(); ctx != nil {
				style = sessionFromContext(ctx).cfg.UI.ColorScheme.String()
			}
			if rendered, rerr := page.Render(style); rerr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
	return &ExitError{Code: code}
}
