package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/corpusql/internal/schema"
)

// Validation error codes (E200-E299)
const (
	ErrNoTables          = "E201" // no table declared
	ErrInvalidIdentifier = "E202" // feature or column is not an SQL identifier
	ErrDuplicateFeature  = "E203" // feature declared twice
	ErrUnknownQuery      = "E204" // query feature not declared
	ErrUnknownTable      = "E205" // optional or annotation table not declared
	ErrMalformedSchema   = "E206" // rejected by schema.New
	ErrTableCycle        = "E207" // cyclic table graph
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a resource description and returns all problems found
// (does not fail-fast). The structural checks run first; schema.New and
// cycle analysis only run on a description that passes them.
func Validate(d *schema.Description) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	tables := make(map[string]bool)
	features := make(map[string]bool)
	for _, e := range d.Entries {
		if !identifierRe.MatchString(e.Name) {
			add(e.Name, ErrInvalidIdentifier, "feature name %q is not an identifier", e.Name)
		}
		if !identifierRe.MatchString(e.Value) {
			add(e.Name, ErrInvalidIdentifier, "column %q is not an identifier", e.Value)
		}
		if features[e.Name] {
			add(e.Name, ErrDuplicateFeature, "feature %q declared twice", e.Name)
		}
		features[e.Name] = true
		if t, ok := strings.CutSuffix(e.Name, "_table"); ok {
			tables[t] = true
		}
	}
	if len(tables) == 0 {
		add("tables", ErrNoTables, "at least one table is required")
	}

	for kind, f := range map[string]string{
		"word":       d.Query.Word,
		"lemma":      d.Query.Lemma,
		"pos":        d.Query.POS,
		"transcript": d.Query.Transcript,
		"gloss":      d.Query.Gloss,
	} {
		if f != "" && !features[f] {
			add("query."+kind, ErrUnknownQuery, "query feature %q is not declared", f)
		}
	}
	for _, t := range d.Optional {
		if !tables[t] {
			add("optional", ErrUnknownTable, "optional table %q is not declared", t)
		}
	}
	for _, a := range d.Annotations {
		if !tables[a.Table] {
			add("annotation", ErrUnknownTable, "annotation table %q is not declared", a.Table)
		}
	}

	if len(errs) > 0 {
		sortErrors(errs)
		return errs
	}

	s, err := schema.New(*d)
	if err != nil {
		return []ValidationError{{Field: "schema", Code: ErrMalformedSchema, Message: err.Error()}}
	}
	for _, c := range AnalyzeCycles(s) {
		errs = append(errs, ValidationError{Field: "tables", Code: ErrTableCycle, Message: c.Message})
	}
	return errs
}

// sortErrors orders errors by field so that map iteration does not leak
// into the output.
func sortErrors(errs []ValidationError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
}
