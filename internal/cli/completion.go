package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/config"
)

var completionGenerators = map[string]func(*cobra.Command, io.Writer) error{
	"bash":       func(c *cobra.Command, w io.Writer) error { return c.GenBashCompletionV2(w, true) },
	"zsh":        func(c *cobra.Command, w io.Writer) error { return c.GenZshCompletion(w) },
	"fish":       func(c *cobra.Command, w io.Writer) error { return c.GenFishCompletion(w, true) },
	"powershell": func(c *cobra.Command, w io.Writer) error { return c.GenPowerShellCompletionWithDesc(w) },
}

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Completion prints a completion script for bash, zsh, fish or
PowerShell. Besides commands and flags, the scripts complete the
enumerated flag values and the view names from the config file.`,
		Example: `  source <(runlens completion bash)
  runlens completion zsh > "${fpath[1]}/_runlens"
  runlens completion fish > ~/.config/fish/completions/runlens.fish
  runlens completion powershell | Out-String | Invoke-Expression`,
		// Completion scripts never depend on configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         slices.Sorted(maps.Keys(completionGenerators)),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := completionGenerators[args[0]]
			if !ok {
				return usageError(fmt.Errorf("unsupported shell %q", args[0]))
			}

			return gen(cmd.Root(), cmd.OutOrStdout())
		},
	}

	return cmd
}

// registerGlobalCompletions completes the enumerated root flags.
func registerGlobalCompletions(root *cobra.Command) {
	for _, name := range []string{"log-level", "log-format", "output", "merge-policy"} {
		values := config.Choices(name)
		_ = root.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
}

// completeViews offers the view names from the config file.
func completeViews(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfgFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	views, err := config.LoadViews(cfg.ConfigFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return views.Names(), cobra.ShellCompDirectiveNoFileComp
}
