package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/corpusql/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigFile is the TOML profile file; Profile selects a profile in
	// it. Profile values are defaults for the query flags.
	ConfigFile string
	Profile    string

	profile config.Profile
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the corpusql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "corpusql",
		Short: "corpusql - corpus queries to SQL",
		Long:  "Compile token-level corpus queries into SQL for MySQL and SQLite corpus databases.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return opts.loadProfile(cmd.Flags().Changed("config"))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", config.DefaultFile, "profile file (TOML)")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "profile name (default: the file's default_profile)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLinksCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// configureLogging installs a text handler on stderr, at debug level
// when verbose.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadProfile reads the profile file. A missing default file is fine; a
// missing file named on the command line is not.
func (o *RootOptions) loadProfile(explicit bool) error {
	load := config.Load
	if explicit {
		load = config.LoadFrom
	}
	cfg, err := load(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading profile file", err)
	}
	p, err := cfg.Profile(o.Profile)
	if err != nil {
		return WrapExitError(ExitCommandError, "selecting profile", err)
	}
	o.profile = p
	slog.Debug("profile loaded", "file", o.ConfigFile, "profile", o.Profile)
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
