package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/version"
)

func newVersionCommand() *cobra.Command {
	var asJSON, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the runlens build",
		Long: `Version prints the runlens release, commit and build date together
with the Go toolchain, the platform and the PipelineRun apiVersion that
create writes.`,
		Args: cobra.NoArgs,
		// No config loading, so version still works with a broken config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			out := info.String()

			switch {
			case short:
				out = info.Version
			case asJSON:
				j, err := info.JSON()
				if err != nil {
					return err
				}

				out = j
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), out)

			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the build information as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	cmd.MarkFlagsMutuallyExclusive("json", "short")

	return cmd
}
