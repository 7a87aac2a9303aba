package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/florisdf/mathsteps/internal/config"
	"github.com/florisdf/mathsteps/internal/logging"
	"github.com/florisdf/mathsteps/isolate"
	"github.com/florisdf/mathsteps/simplify"
)

// app is the state shared by the subcommands, set up before any of them
// runs.
type app struct {
	cfgPath  string
	logLevel string
	output   string

	cfg      *config.Config
	log      *zap.Logger
	pipeline *isolate.Pipeline
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "mathsteps",
		Short: "Factor expressions step by step",
		Long: `mathsteps pulls the factors shared by every term of a sum out in front of it
and prints each rewrite it made on the way:

  mathsteps isolate "2*x + 4*x^2"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "", "Output format (text, json, yaml)")

	rootCmd.AddCommand(
		newIsolateCmd(a),
		newSimplifyCmd(a),
		newDivideCmd(a),
		newPrimesCmd(a),
		newBatchCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = a.output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.pipeline = isolate.New(
		isolate.WithLogger(log.Named("isolate")),
		isolate.WithSimplifier(simplify.Canonical{MaxExpansion: cfg.Pipeline.MaxPowerExpansion}),
	)
	a.log.Debug("config loaded", zap.String("path", a.cfgPath), zap.String("output", cfg.Output))
	return nil
}
