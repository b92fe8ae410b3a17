// Package config loads runlens settings.
//
// Settings come from, in order of precedence: command-line flags,
// RUNLENS_* environment variables, and a .runlens.yaml file found in the
// working directory or ~/.config/runlens. The same file may carry named
// views (see LoadViews).
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/runlens/internal/labelfilter"
)

// Log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Page output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// DefaultSource is the run source used when none is configured.
const DefaultSource = "."

const (
	envPrefix = "RUNLENS"
	fileName  = ".runlens"
)

// Config holds the resolved settings. Keys in files, flags and the
// environment use the kebab-case names from the mapstructure tags.
type Config struct {
	LogLevel  string `mapstructure:"log-level" json:"logLevel"`
	LogFormat string `mapstructure:"log-format" json:"logFormat"`
	NoColor   bool   `mapstructure:"no-color" json:"noColor"`

	// Quiet lowers logging to errors only.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// Source is a PipelineRun manifest file or a directory of manifests.
	Source string `mapstructure:"source" json:"source"`

	// Namespace is used when a location does not name one.
	Namespace string `mapstructure:"namespace" json:"namespace"`

	// MergePolicy decides how repeated labelSelector parameters combine.
	MergePolicy string `mapstructure:"merge-policy" json:"mergePolicy"`

	// StrictLabels applies the Kubernetes label rules to new filters.
	StrictLabels bool `mapstructure:"strict-labels" json:"strictLabels"`

	Output string `mapstructure:"output" json:"output"`

	// ConfigFile is the file Load read, if any.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// choice is an enumerated setting.
type choice struct {
	key    string
	label  string
	values []string
	get    func(*Config) string
}

var choices = []choice{
	{
		key:    "log-level",
		label:  "log level",
		values: []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError},
		get:    func(c *Config) string { return c.LogLevel },
	},
	{
		key:    "log-format",
		label:  "log format",
		values: []string{LogFormatText, LogFormatJSON},
		get:    func(c *Config) string { return c.LogFormat },
	},
	{
		key:    "output",
		label:  "output format",
		values: []string{OutputTable, OutputJSON, OutputYAML},
		get:    func(c *Config) string { return c.Output },
	},
}

// Choices returns the accepted values of an enumerated setting, or nil
// for free-form keys.
func Choices(key string) []string {
	if key == "merge-policy" {
		return []string{labelfilter.LastWins.String(), labelfilter.Merge.String()}
	}

	for _, c := range choices {
		if c.key == key {
			return slices.Clone(c.values)
		}
	}

	return nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:    LogLevelInfo,
		LogFormat:   LogFormatText,
		Source:      DefaultSource,
		MergePolicy: labelfilter.LastWins.String(),
		Output:      OutputTable,
	}
}

// Validate rejects values outside the enumerated choices.
func (c *Config) Validate() error {
	for _, ch := range choices {
		if v := ch.get(c); !slices.Contains(ch.values, v) {
			return fmt.Errorf("invalid %s %q: must be one of %s", ch.label, v, strings.Join(ch.values, ", "))
		}
	}

	if _, ok := labelfilter.ParseMergePolicy(c.MergePolicy); !ok {
		return fmt.Errorf("invalid merge policy %q: must be one of %s", c.MergePolicy, strings.Join(Choices("merge-policy"), ", "))
	}

	return nil
}

// EffectiveLogLevel is LogLevel, or "error" when Quiet is set.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Policy returns the parsed merge policy, falling back to last-wins.
func (c *Config) Policy() labelfilter.MergePolicy {
	p, _ := labelfilter.ParseMergePolicy(c.MergePolicy)
	return p
}

// Load resolves the settings for cmd. configFile, when set, must exist;
// otherwise .runlens.yaml is looked up and may be absent. Each call uses
// its own viper instance.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	d := Default()
	for key, val := range map[string]any{
		"log-level":     d.LogLevel,
		"log-format":    d.LogFormat,
		"no-color":      d.NoColor,
		"quiet":         d.Quiet,
		"source":        d.Source,
		"namespace":     d.Namespace,
		"merge-policy":  d.MergePolicy,
		"strict-labels": d.StrictLabels,
		"output":        d.Output,
	} {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readFile(v, configFile); err != nil {
		return nil, err
	}

	if cmd != nil {
		// LocalFlags covers the command's own persistent flags, which
		// Flags does not until cobra has parsed the command line.
		if err := v.BindPFlags(cmd.LocalFlags()); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}

		if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
			return nil, fmt.Errorf("binding inherited flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "runlens"))
	}

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("parsing config file: %w", err)
}

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the context's Config, or Default() when it has none.
func FromContext(ctx context.Context) *Config {
	if cfg, _ := ctx.Value(ctxKey{}).(*Config); cfg != nil {
		return cfg
	}

	return Default()
}
