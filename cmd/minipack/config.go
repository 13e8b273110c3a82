// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minipack/minipack/internal/config"
	"github.com/minipack/minipack/internal/issue"
)

// newConfigCommand creates the `minipack config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage minipack configuration",
		Long: `Manage minipack configuration.

Configuration is read from the first file found of:
  - the file given with --config
  - ./` + config.ProjectFileName + `
  - the user config file (see 'minipack config path')

MINIPACK_* environment variables override file values, and command-line
flags override both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			showConfig(app.stdout, sessionFromContext(cmd.Context()))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app.stdout, sessionFromContext(cmd.Context()))
		},
	})

	var force, user bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a configuration file with the defaults",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, app, user, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&user, "user", false, "write the user config file instead of ./"+config.ProjectFileName)
	cfgCmd.AddCommand(initCmd)

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE, JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sessionFromContext(cmd.Context())
			if err := dumpConfig(app.stdout, s.cfg, format); err != nil {
				return reportError(cmd, err, s.verbose, ExitUsage)
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format: cue, json or yaml")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(w io.Writer, s *session) {
	keyStyle := KeyStyle
	valueStyle := SuccessStyle
	cfg := s.cfg

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if s.cfgPath != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), s.cfgPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	orNone := func(v string) string {
		if v == "" {
			return SubtitleStyle.Render("(none)")
		}
		return valueStyle.Render(v)
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("entry"), orNone(cfg.Entry))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("output"), orNone(cfg.Output))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("transformer"), valueStyle.Render(cfg.Transformer.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("target"), valueStyle.Render(cfg.Target))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("minify"), valueStyle.Render(fmt.Sprint(cfg.Minify)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("global_name"), orNone(cfg.GlobalName))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("banner"), orNone(cfg.Banner))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("follow_symlinks"), valueStyle.Render(fmt.Sprint(cfg.FollowSymlinks)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("scan_require"), valueStyle.Render(fmt.Sprint(cfg.ScanRequire)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_format"), valueStyle.Render(cfg.LogFormat.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
}

func showConfigPath(w io.Writer, s *session) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Project file: %s\n", config.ProjectFileName)
	fmt.Fprintf(w, "User file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	if s.cfgPath != "" {
		fmt.Fprintf(w, "In use: %s\n", s.cfgPath)
	} else {
		fmt.Fprintf(w, "In use: %s\n", "(none)")
	}
	return nil
}

func initConfig(cmd *cobra.Command, app *App, user, force bool) error {
	s := sessionFromContext(cmd.Context())

	path := config.ProjectFileName
	if user {
		cfgDir, err := config.ConfigDir()
		if err != nil {
			return reportError(cmd, err, s.verbose, ExitBuildFailed)
		}
		path = filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	}

	if err := config.WriteDefault(path, force); err != nil {
		ec := issue.NewErrorContext().WithOperation("create configuration").WithResource(path).Wrap(err)
		if errors.Is(err, config.ErrConfigExists) {
			ec.WithSuggestion("Use --force to overwrite it")
			return reportError(cmd, ec.Build(), s.verbose, ExitUsage)
		}
		ec.WithIssue(issue.OutputWriteFailedId)
		return reportError(cmd, ec.Build(), s.verbose, ExitBuildFailed)
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func dumpConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "cue":
		_, err := io.WriteString(w, config.GenerateCUE(cfg))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (valid: cue, json, yaml)", format)
	}
}
