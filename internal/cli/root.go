package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreyvit/dwarfdb"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DB         string
	Verbose    bool
	Format     string // "json" | "text"
	Timeout    time.Duration
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the dwarfdb inspection tool.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dwarfdb",
		Short: "Inspect a dwarfdb database",
		Long:  "Read-only inspection of the bindings and entities stored in a dwarfdb database file.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath != "" {
				cfg, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return WrapExitError(ExitCommandError, "config", err)
				}
				opts.apply(cfg, cmd)
			}
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			if opts.DB == "" {
				return WrapExitError(ExitCommandError, "no database: pass --db or set db in the config file", nil)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to the database file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every storage operation")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "how long to wait for the database lock")

	cmd.AddCommand(NewBindingsCommand(opts))
	cmd.AddCommand(NewEntityCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))

	return cmd
}

// apply fills in options that were not set on the command line.
func (opts *RootOptions) apply(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("db") && cfg.DB != "" {
		opts.DB = cfg.DB
	}
	if !flags.Changed("verbose") && cfg.Verbose {
		opts.Verbose = true
	}
	if !flags.Changed("format") && cfg.Format != "" {
		opts.Format = cfg.Format
	}
	if !flags.Changed("timeout") && cfg.Timeout != 0 {
		opts.Timeout = cfg.Timeout
	}
}

func (opts *RootOptions) open(stderr io.Writer) (*dwarfdb.DB, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	db, err := dwarfdb.Open(opts.DB, dwarfdb.Options{
		Logger:   logger,
		Verbose:  opts.Verbose,
		ReadOnly: true,
		Timeout:  opts.Timeout,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
