package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/corpusql/internal/schema"
)

// CompileFile compiles every resource declared in the CUE file at path.
// The file is evaluated on its own; use a cue/load instance for packages
// spread over several files.
func CompileFile(path string) ([]*schema.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileResources(v)
}

// BuildSchemas compiles descriptions into schemas, reporting the first
// invalid one together with its validation errors.
func BuildSchemas(descs []*schema.Description) ([]*schema.Schema, error) {
	out := make([]*schema.Schema, 0, len(descs))
	for _, d := range descs {
		if errs := Validate(d); len(errs) > 0 {
			return nil, fmt.Errorf("resource %s: %w", d.Name, errs[0])
		}
		s, err := schema.New(*d)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", d.Name, err)
		}
		out = append(out, s)
	}
	return out, nil
}
