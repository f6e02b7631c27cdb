package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/balltree"
	"github.com/hupe1980/balltree/persistence"
)

// app is the state shared by all commands of one invocation.
type app struct {
	configPath string
	logLevel   string
	cfg        Config
	logger     *balltree.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "balltree",
		Short: "Build and query metric ball trees",
		Long: `balltree indexes vectors or strings under a metric and answers exact
k-nearest-neighbor and ranged queries.

Vectors are read from CSV (one vector per row), strings from text files
(one item per line) when the metric is levenshtein.

Example usage:
  balltree build -i points.csv -m euclidean -o points.bt
  balltree search -t points.bt -i points.csv -q queries.csv -k 5
  balltree search -t points.bt -i points.csv -q queries.csv -r 0.5 --json
  balltree info -t points.bt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newBuildCmd(a), newSearchCmd(a), newInfoCmd(a))
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	if a.configPath != "" {
		cfg, err := LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", a.cfg.LogLevel)
	}
	a.logger = balltree.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// options turns the effective configuration into index options.
func (a *app) options() ([]balltree.Option, error) {
	c, err := persistence.ParseCompression(a.cfg.Compression)
	if err != nil {
		return nil, err
	}
	opts := []balltree.Option{
		balltree.WithLeafSize(a.cfg.LeafSize),
		balltree.WithSeed(a.cfg.Seed),
		balltree.WithCompression(c),
		balltree.WithLogger(a.logger),
	}
	if a.cfg.Workers > 0 {
		opts = append(opts, balltree.WithWorkers(a.cfg.Workers))
	}
	return opts, nil
}

// overlay copies flag values that were set explicitly onto the config.
func (a *app) overlay(flags *pflag.FlagSet) {
	if flags.Changed("metric") {
		a.cfg.Metric, _ = flags.GetString("metric")
	}
	if flags.Changed("leaf-size") {
		a.cfg.LeafSize, _ = flags.GetInt("leaf-size")
	}
	if flags.Changed("seed") {
		a.cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("workers") {
		a.cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("compression") {
		a.cfg.Compression, _ = flags.GetString("compression")
	}
	if flags.Changed("algorithm") {
		a.cfg.Algorithm, _ = flags.GetString("algorithm")
	}
}
