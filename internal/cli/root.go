package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are populated before any subcommand runs.
	Config config.Config
	Logger *zap.Logger
	loaded bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the exprc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "exprc",
		Short: "exprc - expression compiler",
		Long: `Compile SQL expression trees into scalar evaluators and index predicate trees.

WHERE clauses are pushed into the index where possible; anything the index
cannot answer is evaluated per row as a residual filter.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (YAML)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// init validates global flags, loads the config file and builds the logger.
func (o *RootOptions) init() error {
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	o.Config = config.Default()
	if o.ConfigPath != "" {
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "loading config", err)
		}
		o.Config = cfg
	}
	if o.Verbose {
		o.Config.Log.Level = "debug"
	}

	logger, err := o.Config.Log.Build()
	if err != nil {
		return WrapExitError(ExitCommandError, "building logger", err)
	}
	o.Logger = logger
	o.loaded = true
	return nil
}

// logger returns the configured logger, or a no-op logger when the command
// runs without the root command (as in tests).
func (o *RootOptions) logger() *zap.Logger {
	if !o.loaded || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// settings returns the loaded configuration, or the defaults when the
// command runs without the root command.
func (o *RootOptions) settings() config.Config {
	if !o.loaded {
		return config.Default()
	}
	return o.Config
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
