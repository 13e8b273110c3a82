// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minipack/minipack/internal/config"
	"github.com/minipack/minipack/internal/ctxlog"
	"github.com/minipack/minipack/internal/downlevel"
	"github.com/minipack/minipack/internal/issue"
	"github.com/minipack/minipack/internal/jsmod"
	"github.com/minipack/minipack/pkg/bundler"
	"github.com/minipack/minipack/pkg/emit"
	"github.com/minipack/minipack/pkg/graph"
	"github.com/minipack/minipack/pkg/resolve"
)

type buildFlags struct {
	output         string
	manifest       string
	minify         bool
	transformer    string
	target         string
	globalName     string
	banner         string
	followSymlinks bool
	scanRequire    bool
}

func newBuildCommand(app *App) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build [entry]",
		Short: "Bundle an entry module and its dependencies",
		Long: `Bundle an entry module and everything it imports into one script.

The entry defaults to the "entry" field of the configuration. The bundle is
written to stdout unless --output or the "output" field names a file.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeEntry,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, app, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "write the bundle to this file instead of stdout")
	f.StringVar(&flags.manifest, "manifest", "", "write a build manifest (.json, .yaml or .yml)")
	f.BoolVar(&flags.minify, "minify", false, "minify the bundle")
	f.StringVar(&flags.transformer, "transformer", "", "module transformer: native or esbuild")
	f.StringVar(&flags.target, "target", "", "language target for the esbuild transformer and minifier")
	f.StringVar(&flags.globalName, "global-name", "", "assign the entry exports to this global")
	f.StringVar(&flags.banner, "banner", "", "comment placed at the top of the bundle")
	f.BoolVar(&flags.followSymlinks, "follow-symlinks", true, "identify modules by their symlink target")
	f.BoolVar(&flags.scanRequire, "scan-require", true, "treat literal require() calls as dependencies")

	return cmd
}

// applyBuildFlags overrides cfg with the flags given on the command line.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, flags *buildFlags) {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output = flags.output
	}
	if changed("minify") {
		cfg.Minify = flags.minify
	}
	if changed("transformer") {
		cfg.Transformer = config.TransformerKind(flags.transformer)
	}
	if changed("target") {
		cfg.Target = flags.target
	}
	if changed("global-name") {
		cfg.GlobalName = flags.globalName
	}
	if changed("banner") {
		cfg.Banner = flags.banner
	}
	if changed("follow-symlinks") {
		cfg.FollowSymlinks = flags.followSymlinks
	}
	if changed("scan-require") {
		cfg.ScanRequire = flags.scanRequire
	}
}

func runBuild(cmd *cobra.Command, app *App, flags *buildFlags, args []string) error {
	ctx := cmd.Context()
	s := sessionFromContext(ctx)
	cfg := *s.cfg
	applyBuildFlags(cmd, &cfg, flags)
	if err := cfg.Validate(); err != nil {
		return reportError(cmd, issue.NewErrorContext().
			WithOperation("configure build").
			WithIssue(invalidConfigIssue(err)).
			Wrap(err).
			Build(), s.verbose, ExitUsage)
	}

	entry, err := entryArg(args, &cfg)
	if err != nil {
		return reportError(cmd, err, s.verbose, ExitUsage)
	}

	b, err := newBundler(&cfg)
	if err != nil {
		return reportError(cmd, classifyError(err, entry), s.verbose, ExitUsage)
	}

	res, err := b.Build(ctx, entry)
	if err != nil {
		return reportError(cmd, classifyError(err, entry), s.verbose, ExitBuildFailed)
	}

	logger := ctxlog.FromContext(ctx)
	if cfg.Output == "" {
		if _, err := io.WriteString(app.stdout, res.Output); err != nil {
			return reportError(cmd, err, s.verbose, ExitBuildFailed)
		}
	} else {
		if err := writeFileAtomic(cfg.Output, []byte(res.Output)); err != nil {
			return reportError(cmd, outputError(cfg.Output, err), s.verbose, ExitBuildFailed)
		}
		logger.Info("bundle written", "path", cfg.Output, "bytes", len(res.Output))
	}

	if flags.manifest != "" {
		data, err := encodeManifest(flags.manifest, res.Manifest())
		if err == nil {
			err = writeFileAtomic(flags.manifest, data)
		}
		if err != nil {
			return reportError(cmd, outputError(flags.manifest, err), s.verbose, ExitBuildFailed)
		}
		logger.Info("manifest written", "path", flags.manifest)
	}

	if cfg.Output != "" {
		fmt.Fprintf(app.stderr, "%s %s (%d modules, %d bytes)\n",
			SuccessStyle.Render("✓ Bundled"), KeyStyle.Render(cfg.Output), len(res.Modules), len(res.Output))
	}
	return nil
}

// entryArg picks the entry from the argument or the configuration.
func entryArg(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Entry != "" {
		return cfg.Entry, nil
	}
	return "", issue.NewErrorContext().
		WithOperation("bundle").
		WithIssue(issue.EntryNotFoundId).
		WithSuggestion("Pass the entry file: minipack build src/entry.js").
		WithSuggestion("Or set 'entry' in " + config.ProjectFileName).
		Wrap(errors.New("no entry module given")).
		BuildError()
}

// newBundler assembles a Bundler from configuration.
func newBundler(cfg *config.Config) (*bundler.Bundler, error) {
	opts := bundler.Options{
		Analyzer: &jsmod.Analyzer{ScanRequire: cfg.ScanRequire},
		Resolver: &resolve.Resolver{FollowSymlinks: cfg.FollowSymlinks},
		Emit: emit.Options{
			GlobalName: cfg.GlobalName,
			Banner:     cfg.Banner,
		},
	}

	var transformer graph.Transformer = jsmod.Lowerer{}
	if cfg.Transformer == config.TransformerEsbuild {
		t, err := downlevel.New(cfg.Target)
		if err != nil {
			return nil, err
		}
		transformer = t
	}
	opts.Transformer = transformer

	if cfg.Minify {
		target := cfg.Target
		opts.Minifier = bundler.MinifierFunc(func(bundle string) (string, error) {
			return downlevel.Minify(bundle, target)
		})
	}
	return bundler.New(opts)
}

// invalidConfigIssue picks the catalog issue for a validation failure.
func invalidConfigIssue(err error) issue.Id {
	switch {
	case errors.Is(err, downlevel.ErrUnknownTarget):
		return issue.InvalidTargetId
	case errors.Is(err, emit.ErrInvalidGlobalName):
		return issue.InvalidGlobalNameId
	default:
		return issue.ConfigLoadFailedId
	}
}

func outputError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write output").
		WithResource(path).
		WithIssue(issue.OutputWriteFailedId).
		WithSuggestion("Check that the directory exists and is writable").
		Wrap(err).
		BuildError()
}

// encodeManifest serializes m as YAML for .yaml/.yml paths and JSON otherwise.
func encodeManifest(path string, m *bundler.Manifest) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(m)
	default:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial bundle.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
