// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// scriptExtensions are offered when completing entry arguments.
var scriptExtensions = []string{"js", "mjs", "cjs"}

// newCompletionCommand creates the `minipack completion` command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for minipack.

` + SubtitleStyle.Render("Bash:") + `
  eval "$(minipack completion bash)"

` + SubtitleStyle.Render("Zsh:") + `
  minipack completion zsh > "${fpath[1]}/_minipack"

` + SubtitleStyle.Render("Fish:") + `
  minipack completion fish > ~/.config/fish/completions/minipack.fish

` + SubtitleStyle.Render("PowerShell:") + `
  minipack completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Annotations:           map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeEntry completes the single entry argument with script files.
func completeEntry(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return scriptExtensions, cobra.ShellCompDirectiveFilterFileExt
}
