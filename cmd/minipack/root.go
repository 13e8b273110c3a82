// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/config"
	"github.com/minipack/minipack/internal/ctxlog"
)

// skipConfigAnnotation marks commands that must work with a broken config file.
const skipConfigAnnotation = "minipack/skip-config"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type rootFlags struct {
	verbose   bool
	cfgFile   string
	logLevel  string
	logFormat string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "minipack",
		Short: "Bundle JavaScript modules into a single script",
		Long: TitleStyle.Render("minipack") + SubtitleStyle.Render(" - a small JavaScript module bundler") + `

minipack starts at an entry module, follows its imports breadth-first and
emits one self-contained script with a tiny require() runtime. Every module
runs at most once and import cycles terminate.

` + SubtitleStyle.Render("Examples:") + `
  minipack build src/entry.js            Print the bundle to stdout
  minipack build src/entry.js -o out.js  Write the bundle to a file
  minipack graph src/entry.js --order    List modules dependencies-first
  minipack config init                   Create ./minipack.cue`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return prepareSession(cmd, app, flags)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and detailed error help")
	pf.StringVar(&flags.cfgFile, "config", "", "config file (default ./minipack.cue, then the user config directory)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text, json, logfmt")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newGraphCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newCompletionCommand())

	return rootCmd
}

// prepareSession loads configuration, applies the global flags and attaches
// the session and logger to the command context.
func prepareSession(cmd *cobra.Command, app *App, flags *rootFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s := &session{}
	if _, skip := cmd.Annotations[skipConfigAnnotation]; skip {
		s.cfg = config.DefaultConfig()
	} else {
		cfg, path, err := app.Config.Resolve(ctx, config.LoadOptions{ConfigFilePath: flags.cfgFile})
		if err != nil {
			return reportError(cmd, err, flags.verbose, ExitUsage)
		}
		s.cfg, s.cfgPath = cfg, path
	}

	if cmd.Flags().Changed("log-level") {
		s.cfg.LogLevel = config.LogLevel(flags.logLevel)
	}
	if cmd.Flags().Changed("log-format") {
		s.cfg.LogFormat = config.LogFormat(flags.logFormat)
	}
	s.verbose = flags.verbose || s.cfg.UI.Verbose
	if flags.verbose {
		s.cfg.LogLevel = config.LogLevelDebug
	}
	if err := s.cfg.Validate(); err != nil {
		return reportError(cmd, err, s.verbose, ExitUsage)
	}

	logger, err := ctxlog.New(cmd.ErrOrStderr(), ctxlog.Options{
		Level:  s.cfg.LogLevel.String(),
		Format: s.cfg.LogFormat.String(),
	})
	if err != nil {
		return reportError(cmd, err, s.verbose, ExitUsage)
	}
	if s.cfgPath != "" {
		logger.Debug("configuration loaded", "path", s.cfgPath)
	}

	ctx = contextWithSession(ctx, s)
	cmd.SetContext(ctxlog.WithLogger(ctx, logger))
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// errorHandler prints errors fang receives, except those already reported.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the CLI and exits with the code of the failure, if any.
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(errorHandler),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
