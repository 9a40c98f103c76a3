package cli

import (
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/corpusql/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Resources []string                   `json:"resources,omitempty"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schemas-dir>",
		Short: "Validate resource schemas",
		Long: `Validate the CUE resource declarations in a directory.

Reports every problem found: malformed declarations, feature names that are
not SQL identifiers, duplicate features, query features that are not
declared, and cyclic table graphs.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	names, validationErrors, err := validateDir(dir, formatter)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter, names)
}

// validateDir loads dir in collect-all mode and validates each resource
// that compiled. The error return is reserved for directories that could
// not be loaded at all.
func validateDir(dir string, formatter *OutputFormatter) ([]string, []compiler.ValidationError, error) {
	loaded, loadErrors := LoadSchemas(dir, LoadModeCollectAll)
	if loaded == nil {
		return nil, nil, loadErrors[0]
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	var all []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			all = append(all, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr.Pos),
			})
			continue
		}
		all = append(all, compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric})
	}

	var names []string
	seen := make(map[string]bool)
	for _, d := range loaded.Resources {
		formatter.VerboseLog("Validating resource: %s", d.Name)
		names = append(names, d.Name)
		if seen[d.DBName] {
			all = append(all, compiler.ValidationError{
				Field:   "resource." + d.Name + ".db_name",
				Message: fmt.Sprintf("database name %q is used by another resource", d.DBName),
				Code:    ErrCodeDuplicateDB,
			})
		}
		seen[d.DBName] = true

		for _, ve := range compiler.Validate(d) {
			ve.Field = "resource." + d.Name + "." + ve.Field
			all = append(all, ve)
		}
	}
	return names, all, nil
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

func outputValidateSuccess(formatter *OutputFormatter, names []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Resources: names})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d resource(s) valid\n", len(names))
	for _, n := range names {
		fmt.Fprintf(formatter.Writer, "  %s\n", n)
	}
	return nil
}

// outputValidateError reports a directory that could not be loaded
// (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors reports invalid schemas (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return failure
}

// ValidateSchemasDir validates every resource in dir without printing.
func ValidateSchemasDir(dir string) ([]compiler.ValidationError, error) {
	_, errs, err := validateDir(dir, &OutputFormatter{Format: "text", Writer: io.Discard, ErrWriter: io.Discard})
	return errs, err
}
