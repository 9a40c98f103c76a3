package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/corpusql/internal/compiler"
	"github.com/roach88/corpusql/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the resources loaded from a schema directory.
type LoadResult struct {
	Resources []*schema.Description
	CUEValue  cue.Value
	FileCount int
}

// Find returns the description named name.
func (r *LoadResult) Find(name string) (*schema.Description, bool) {
	for _, d := range r.Resources {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads the CUE package in dir and compiles every resource
// under its "resource" field.
func LoadSchemas(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	resVal := value.LookupPath(cue.ParsePath("resource"))
	if resVal.Exists() {
		iter, iterErr := resVal.Fields()
		if iterErr != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating resources: %v", iterErr)}}
		}
		for iter.Next() {
			d, compileErr := compiler.CompileResource(iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, "resource."+iter.Label()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Resources = append(result.Resources, d)
		}
	}

	if len(result.Resources) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoResources, Message: "no resources found in schemas"})
	}
	return result, errs
}

// FindCUEFiles returns the .cue files directly in dir. Subdirectories
// are separate CUE packages and are not loaded.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		if compileErr.Message == "unknown field" {
			code = ErrCodeUnknownField
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// loadErrorCode returns the code of a LoadError, or the generic code.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// Error code constants, shared by all commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNoResources = "E008" // No resource declared
	ErrCodeDuplicateDB = "E009" // two resources share a database name

	// Resource declaration errors
	ErrCodeResourceTables = "E101" // tables missing or malformed
	ErrCodeTableFeatures  = "E102" // features missing or malformed
	ErrCodeAnnotation     = "E103" // annotation incomplete
	ErrCodeQueryFeatures  = "E104" // query block malformed
	ErrCodeUnknownField   = "E105" // field not part of the resource format

	// Query errors
	ErrCodeQuerySyntax     = "E301" // token syntax error
	ErrCodeQueryFeature    = "E302" // unknown or unreachable feature
	ErrCodeQueryCompile    = "E303" // any other compile failure
	ErrCodeDatabase        = "E304" // database open or execution failure
	ErrCodeUnknownResource = "E305" // resource not found in schemas
	ErrCodeLinks           = "E306" // link registry failure

	// Scenario errors
	ErrCodeTestFailed = "E401" // one or more scenarios failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "tables":
		return ErrCodeResourceTables
	case strings.Contains(field, ".annotation"):
		return ErrCodeAnnotation
	case strings.Contains(field, ".features"):
		return ErrCodeTableFeatures
	case strings.HasPrefix(field, "query"):
		return ErrCodeQueryFeatures
	case strings.HasPrefix(field, "tables."):
		return ErrCodeResourceTables
	default:
		return ErrCodeGeneric
	}
}
