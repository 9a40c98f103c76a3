package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/corpusql/internal/resource"
	"github.com/roach88/corpusql/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	QueryFlags
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <item>...",
		Short: "Compile a corpus query to SQL",
		Long: `Compile a token query into one SQL SELECT statement.

Each argument is one query item. Bracketed specifiers are parts of speech
when --db names a corpus database whose tag table contains them, lemmas
otherwise.

Examples:
  corpusql compile --schemas ./corpora -r demo walk "[n*]"
  corpusql compile --schemas ./corpora -f word_label -f file_name --dialect mysql "walk|run"
  corpusql compile --schemas ./corpora --inline --format json "#walk" "*{0,2}" home`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyProfile(cmd, opts.RootOptions)
			return runCompile(opts, args, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled query as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, items []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	r, err := opts.openResource()
	if err != nil {
		return outputCommandError(formatter, err)
	}
	compileOpts, err := opts.options()
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, err.Error())
		}
		defer st.Close()
		isPOS, err := st.PartOfSpeech(cmd.Context(), r.Schema())
		if err == nil {
			compileOpts.IsPartOfSpeech = isPOS
		} else {
			formatter.VerboseLog("part-of-speech lookup disabled: %v", err)
		}
	}

	q, err := r.Compile(items, opts.Features, compileOpts)
	if err != nil {
		return outputCompileError(formatter, queryErrorCode(err), err.Error())
	}
	formatter.VerboseLog("Compiled %d item(s) into %d alternative(s)", len(items), q.Alternatives)

	if opts.Output != "" {
		if err := writeCompiledToFile(q, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}
	return outputCompileSuccess(formatter, q, opts.Output)
}

// outputCompileSuccess prints the SQL, then the parameters and columns.
func outputCompileSuccess(formatter *OutputFormatter, q *resource.Compiled, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(q)
	}

	fmt.Fprintln(formatter.Writer, q.SQL)
	if len(q.Params) > 0 {
		params := make([]string, len(q.Params))
		for i, p := range q.Params {
			params[i] = fmt.Sprintf("%q", fmt.Sprint(p))
		}
		fmt.Fprintf(formatter.Writer, "-- params: %s\n", strings.Join(params, ", "))
	}
	aliases := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		aliases[i] = c.Alias
	}
	fmt.Fprintf(formatter.Writer, "-- columns: %s\n", strings.Join(aliases, ", "))
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "-- wrote %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a query error. Bad queries are command
// errors (exit code 2).
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCommandError reports a setup failure that already carries an
// exit code.
func outputCommandError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		code = exitErr.ErrCode
	}
	_ = formatter.Error(code, err.Error(), nil)
	return err
}

func writeCompiledToFile(q *resource.Compiled, filename string) error {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling query: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), 0o644)
}
