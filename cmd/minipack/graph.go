// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minipack/minipack/internal/ctxlog"
	"github.com/minipack/minipack/internal/dag"
	"github.com/minipack/minipack/pkg/bundler"
	"github.com/minipack/minipack/pkg/module"
)

type (
	graphFlags struct {
		format string
		order  bool
	}

	// graphReport is the machine-readable output of the graph command.
	graphReport struct {
		bundler.Manifest `yaml:",inline"`
		Order            []module.ID `json:"order,omitempty" yaml:"order,omitempty"`
	}
)

func newGraphCommand(app *App) *cobra.Command {
	flags := &graphFlags{}

	cmd := &cobra.Command{
		Use:   "graph [entry]",
		Short: "Show the module graph of an entry",
		Long: `Discover every module reachable from the entry and print the graph.

Module ids are assigned in breadth-first discovery order; the entry is 0.
With --order the modules are also listed so that every module follows the
modules it imports.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeEntry,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, app, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&flags.order, "order", false, "include the dependencies-first load order")
	return cmd
}

func runGraph(cmd *cobra.Command, app *App, flags *graphFlags, args []string) error {
	ctx := cmd.Context()
	s := sessionFromContext(ctx)

	switch flags.format {
	case "text", "json", "yaml":
	default:
		return reportError(cmd, fmt.Errorf("unknown format %q (valid: text, json, yaml)", flags.format), s.verbose, ExitUsage)
	}

	entry, err := entryArg(args, s.cfg)
	if err != nil {
		return reportError(cmd, err, s.verbose, ExitUsage)
	}
	b, err := newBundler(s.cfg)
	if err != nil {
		return reportError(cmd, classifyError(err, entry), s.verbose, ExitUsage)
	}
	records, err := b.Graph(ctx, entry)
	if err != nil {
		return reportError(cmd, classifyError(err, entry), s.verbose, ExitBuildFailed)
	}

	report := graphReport{Manifest: *bundler.NewManifest(records)}
	if flags.order {
		order, err := bundler.LoadOrder(records)
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			ctxlog.FromContext(ctx).Warn("import cycle; order is partial", "cycle", cycleNames(cycle, &report.Manifest))
		}
		report.Order = order
	}

	switch flags.format {
	case "json":
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(app.stdout)
		enc.SetIndent(2)
		err = enc.Encode(report)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = renderGraphText(app.stdout, &report)
	}
	if err != nil {
		return reportError(cmd, err, s.verbose, ExitBuildFailed)
	}
	return nil
}

// cycleNames maps the ids of a cycle to module paths.
func cycleNames(cycle *dag.CycleError, m *bundler.Manifest) string {
	names := make([]string, 0, len(cycle.Cycle))
	for _, node := range cycle.Cycle {
		names = append(names, pathOf(m, node))
	}
	return strings.Join(names, ", ")
}

func pathOf(m *bundler.Manifest, id string) string {
	for _, mod := range m.Modules {
		if fmt.Sprint(mod.ID) == id {
			return mod.Path
		}
	}
	return id
}

func renderGraphText(w io.Writer, r *graphReport) error {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Module graph") + " " + SubtitleStyle.Render(r.Root) + "\n\n")

	for _, mod := range r.Modules {
		sb.WriteString(idStyle.Render(fmt.Sprint(mod.ID)) + "  " + KeyStyle.Render(mod.Path) + "\n")
		for _, e := range mod.Mapping.Entries() {
			fmt.Fprintf(&sb, "        %s -> %d\n", e.Specifier, e.ID)
		}
	}

	if len(r.Order) > 0 {
		sb.WriteString("\n" + SubtitleStyle.Render("Load order:") + "\n")
		for i, id := range r.Order {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, r.Modules[id].Path)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
