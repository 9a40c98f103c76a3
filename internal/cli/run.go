package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	QueryFlags
	Attach []string // name=path
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <item>...",
		Short: "Compile a corpus query and run it",
		Long: `Compile a token query and execute it against a SQLite corpus database.

Linked resources live in other SQLite files; attach each one under the
db_name of its resource with --attach.

Examples:
  corpusql run --schemas ./corpora --db demo.db walk "[n*]"
  corpusql run --profile demo --limit 20 --format json "#walk"
  corpusql run --profile demo --attach celexdb=celex.db -f word_label -f <hash>.word_frequency walk`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyProfile(cmd, opts.RootOptions)
			return runQuery(opts, args, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringSliceVar(&opts.Attach, "attach", nil, "attach a database as name=path (repeatable)")

	return cmd
}

func runQuery(opts *RunOptions, items []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	compileOpts, err := opts.options()
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}
	if compileOpts.Dialect != querysql.SQLite {
		return outputCompileError(formatter, ErrCodeDatabase, "run only executes against sqlite; use compile for "+compileOpts.Dialect.String())
	}
	if opts.Database == "" {
		return outputCompileError(formatter, ErrCodeNotFound, "--db is required")
	}
	if _, err := os.Stat(opts.Database); err != nil {
		return outputCompileError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database))
	}

	r, err := opts.openResource()
	if err != nil {
		return outputCommandError(formatter, err)
	}

	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return outputCompileError(formatter, ErrCodeDatabase, err.Error())
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, a := range opts.Attach {
		name, path, ok := cutAttach(a)
		if !ok {
			return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("--attach %q: want name=path", a))
		}
		if err := st.Attach(ctx, path, name); err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, err.Error())
		}
	}

	if isPOS, err := st.PartOfSpeech(ctx, r.Schema()); err == nil {
		compileOpts.IsPartOfSpeech = isPOS
	} else {
		formatter.VerboseLog("part-of-speech lookup disabled: %v", err)
	}

	q, err := r.Compile(items, opts.Features, compileOpts)
	if err != nil {
		return outputCompileError(formatter, queryErrorCode(err), err.Error())
	}
	formatter.VerboseLog("%s", q.SQL)

	res, err := st.Run(ctx, q)
	if err != nil {
		return outputCompileError(formatter, ErrCodeDatabase, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	header := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.Alias
	}
	if len(res.Rows) > 0 {
		if err := formatter.Table(header, res.Rows); err != nil {
			return err
		}
	}
	fmt.Fprintf(formatter.Writer, "(%d row(s))\n", len(res.Rows))
	return nil
}

func cutAttach(s string) (name, path string, ok bool) {
	name, path, ok = strings.Cut(s, "=")
	return name, path, ok && name != "" && path != ""
}
