package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/runlens/internal/config"
	"github.com/hupe1980/runlens/internal/diff"
	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/logging"
	"github.com/hupe1980/runlens/internal/render"
	"github.com/hupe1980/runlens/internal/urls"
)

func newFilterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Parse, add, remove and compare label filters",
		Long: `Filter works on the label filters carried in a PipelineRuns URL without
reading any runs. Invalid or duplicate filters exit with code 3.`,
	}

	cmd.AddCommand(
		newFilterParseCommand(),
		newFilterAddCommand(),
		newFilterRemoveCommand(),
		newFilterDiffCommand(),
	)

	return cmd
}

// filterResult is the machine-readable output of the filter subcommands.
type filterResult struct {
	Filters labelfilter.Set     `json:"filters"`
	Query   string              `json:"query,omitempty"`
	URL     string              `json:"url,omitempty"`
	Change  *labelfilter.Change `json:"change,omitempty"`
}

// writeFilterResult prints res in the configured output format. The
// table format prints the URL (or the tokens when there is none).
func writeFilterResult(w io.Writer, cfg *config.Config, res filterResult) error {
	switch cfg.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(res)
	case config.OutputYAML:
		data, err := sigsyaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("serializing YAML: %w", err)
		}

		_, err = w.Write(data)

		return err
	}

	if res.URL != "" {
		_, err := fmt.Fprintln(w, res.URL)
		return err
	}

	for _, t := range res.Filters {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}

	return nil
}

func newFilterParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <input>",
		Short: "Validate filter input and print the canonical tokens",
		Example: `  runlens filter parse 'app:web, env:prod'
  runlens filter parse 'app:web' -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())

			tokens, err := labelfilter.ParseInput(args[0])
			if err == nil && cfg.StrictLabels {
				err = labelfilter.ValidateStrict(tokens)
			}

			if err != nil {
				return filterExit(err)
			}

			set := labelfilter.NewSet(tokens...)

			return writeFilterResult(cmd.OutOrStdout(), cfg, filterResult{
				Filters: set,
				Query:   labelfilter.Serialize(set),
			})
		},
	}
}

func newFilterAddCommand() *cobra.Command {
	var rawURL string

	cmd := &cobra.Command{
		Use:   "add <input>",
		Short: "Add filters to a URL the way the filter input does",
		Example: `  runlens filter add --url /namespaces/ci/pipelineruns 'app:web'
  runlens filter add --url '/pipelineruns?labelSelector=app%3Dweb' env:prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			loc, current, err := filtersAt(rawURL, cfg)
			if err != nil {
				return err
			}

			box := labelfilter.InputBox{Strict: cfg.StrictLabels}
			box.SetValue(args[0])

			next, err := box.Submit(current)
			if err != nil {
				return filterExit(err)
			}

			logging.FromContext(ctx).Debug("filters added",
				slog.String("from", current.String()),
				slog.String("to", next.String()),
			)

			change := labelfilter.Diff(current, next)

			return writeFilterResult(cmd.OutOrStdout(), cfg, filterResult{
				Filters: next,
				Query:   labelfilter.Serialize(next),
				URL:     urls.WithFilters(loc.Path, next),
				Change:  &change,
			})
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", "", "PipelineRuns location (required)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newFilterRemoveCommand() *cobra.Command {
	var rawURL string

	cmd := &cobra.Command{
		Use:   "remove <key:value>",
		Short: "Remove one filter from a URL",
		Long: `Remove drops a single filter from the URL. Removing the last filter
yields the bare page URL. Removing a filter that is not present leaves
the URL's filters unchanged.`,
		Example: `  runlens filter remove --url '/pipelineruns?labelSelector=app%3Dweb' app:web`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())

			loc, current, err := filtersAt(rawURL, cfg)
			if err != nil {
				return err
			}

			t, err := parseToken(args[0])
			if err != nil {
				return filterExit(err)
			}

			next := labelfilter.Remove(current, t)
			change := labelfilter.Diff(current, next)

			return writeFilterResult(cmd.OutOrStdout(), cfg, filterResult{
				Filters: next,
				Query:   labelfilter.Serialize(next),
				URL:     urls.WithFilters(loc.Path, next),
				Change:  &change,
			})
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", "", "PipelineRuns location (required)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newFilterDiffCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:     "diff",
		Short:   "Compare the filters of two URLs",
		Example: `  runlens filter diff --from '/pipelineruns?labelSelector=app%3Dweb' --to '/pipelineruns?labelSelector=app%3Dapi'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			fromLoc, err := urls.Parse(from)
			if err != nil {
				return usageError(err)
			}

			toLoc, err := urls.Parse(to)
			if err != nil {
				return usageError(err)
			}

			result, err := diff.Filters(
				diff.Side{Label: from, Filters: labelfilter.DeserializeWith(fromLoc.Query, cfg.Policy())},
				diff.Side{Label: to, Filters: labelfilter.DeserializeWith(toLoc.Query, cfg.Policy())},
			)
			if err != nil {
				return &ExitError{Code: CodeError, Err: err}
			}

			if cfg.Output != config.OutputTable {
				return writeFilterResult(cmd.OutOrStdout(), cfg, filterResult{
					Filters: labelfilter.DeserializeWith(toLoc.Query, cfg.Policy()),
					Change:  &result.Change,
				})
			}

			styles := render.DefaultStyles()
			if cfg.NoColor {
				styles = render.PlainStyles()
			}

			return diff.Write(cmd.OutOrStdout(), result, styles)
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "current location (required)")
	f.StringVar(&to, "to", "", "proposed location (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// filtersAt parses rawURL and reads its active filters.
func filtersAt(rawURL string, cfg *config.Config) (urls.Location, labelfilter.Set, error) {
	loc, err := urls.Parse(rawURL)
	if err != nil {
		return urls.Location{}, nil, usageError(err)
	}

	return loc, labelfilter.DeserializeWith(loc.Query, cfg.Policy()), nil
}
