package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/corpusql/internal/schema"
)

// CompileResource parses a CUE value into a schema Description. The
// resource name is the last path selector of v.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`resource: demo: { ... }`)
//	desc, err := CompileResource(v.LookupPath(cue.ParsePath("resource.demo")))
//
// The description is not validated beyond its shape; call schema.New or
// Validate for that.
func CompileResource(v cue.Value) (*schema.Description, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkFields(v, "", "db_name", "root", "lexicon", "tables", "query"); err != nil {
		return nil, err
	}

	d := &schema.Description{Labels: make(map[string]string)}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		d.Name = labels[len(labels)-1].Unquoted()
	}

	var err error
	if d.DBName, err = optionalString(v, "db_name"); err != nil {
		return nil, err
	}
	if d.DBName == "" {
		d.DBName = d.Name
	}
	if d.Root, err = optionalString(v, "root"); err != nil {
		return nil, err
	}
	if d.Lexicon, err = optionalString(v, "lexicon"); err != nil {
		return nil, err
	}

	if err := parseTables(v, d); err != nil {
		return nil, err
	}
	if err := parseQuery(v, d); err != nil {
		return nil, err
	}
	if len(d.Labels) == 0 {
		d.Labels = nil
	}
	return d, nil
}

// CompileResources compiles every resource under the "resource" field of
// v, in declaration order.
func CompileResources(v cue.Value) ([]*schema.Description, error) {
	resVal := v.LookupPath(cue.ParsePath("resource"))
	if !resVal.Exists() {
		return nil, nil
	}
	iter, err := resVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []*schema.Description
	for iter.Next() {
		d, err := CompileResource(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseTables(v cue.Value, d *schema.Description) error {
	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return &CompileError{Field: "tables", Message: "tables is required", Pos: v.Pos()}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		tv := iter.Value()
		field := "tables." + name
		if err := checkFields(tv, field, "table", "optional", "features", "annotation"); err != nil {
			return err
		}

		physical, err := requiredString(tv, "table", field)
		if err != nil {
			return err
		}
		d.Entries = append(d.Entries, schema.Entry{Name: name + "_table", Value: physical})

		if err := parseFeatures(tv, name, field, d); err != nil {
			return err
		}

		optVal := tv.LookupPath(cue.ParsePath("optional"))
		if optVal.Exists() {
			optional, err := optVal.Bool()
			if err != nil {
				return &CompileError{Field: field + ".optional", Message: "optional must be a bool", Pos: optVal.Pos()}
			}
			if optional {
				d.Optional = append(d.Optional, name)
			}
		}

		annVal := tv.LookupPath(cue.ParsePath("annotation"))
		if annVal.Exists() {
			a, err := parseAnnotation(annVal, name, field+".annotation")
			if err != nil {
				return err
			}
			d.Annotations = append(d.Annotations, a)
		}
	}

	if len(d.Entries) == 0 {
		return &CompileError{Field: "tables", Message: "at least one table is required", Pos: tablesVal.Pos()}
	}
	return nil
}

// parseFeatures adds <table>_<key> entries. A feature is either a column
// name or a struct {column, label}.
func parseFeatures(tv cue.Value, table, field string, d *schema.Description) error {
	featVal := tv.LookupPath(cue.ParsePath("features"))
	if !featVal.Exists() {
		return &CompileError{Field: field + ".features", Message: "features is required", Pos: tv.Pos()}
	}
	iter, err := featVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := table + "_" + iter.Label()
		fv := iter.Value()
		ffield := field + ".features." + iter.Label()

		switch fv.IncompleteKind() {
		case cue.StringKind:
			column, err := fv.String()
			if err != nil {
				return formatCUEError(err)
			}
			d.Entries = append(d.Entries, schema.Entry{Name: name, Value: column})
		case cue.StructKind:
			if err := checkFields(fv, ffield, "column", "label"); err != nil {
				return err
			}
			column, err := requiredString(fv, "column", ffield)
			if err != nil {
				return err
			}
			label, err := optionalString(fv, "label")
			if err != nil {
				return err
			}
			d.Entries = append(d.Entries, schema.Entry{Name: name, Value: column})
			if label != "" {
				d.Labels[name] = label
			}
		default:
			return &CompileError{
				Field:   ffield,
				Message: fmt.Sprintf("feature must be a column name or {column, label}, got %v", fv.IncompleteKind()),
				Pos:     fv.Pos(),
			}
		}
	}
	return nil
}

func parseAnnotation(v cue.Value, table, field string) (schema.Annotation, error) {
	a := schema.Annotation{Table: table}
	targets := []struct {
		key string
		dst *string
	}{
		{"parent", &a.Parent},
		{"start", &a.Start},
		{"end", &a.End},
		{"origin", &a.Origin},
		{"parent_start", &a.ParentStart},
		{"parent_end", &a.ParentEnd},
		{"parent_origin", &a.ParentOrigin},
	}
	keys := make([]string, len(targets))
	for i, t := range targets {
		keys[i] = t.key
	}
	if err := checkFields(v, field, keys...); err != nil {
		return a, err
	}
	for _, t := range targets {
		s, err := requiredString(v, t.key, field)
		if err != nil {
			return a, err
		}
		*t.dst = s
	}
	return a, nil
}

func parseQuery(v cue.Value, d *schema.Description) error {
	qv := v.LookupPath(cue.ParsePath("query"))
	if !qv.Exists() {
		return nil
	}
	if err := checkFields(qv, "query", "word", "lemma", "pos", "transcript", "gloss"); err != nil {
		return err
	}
	for _, t := range []struct {
		key string
		dst *string
	}{
		{"word", &d.Query.Word},
		{"lemma", &d.Query.Lemma},
		{"pos", &d.Query.POS},
		{"transcript", &d.Query.Transcript},
		{"gloss", &d.Query.Gloss},
	} {
		s, err := optionalString(qv, t.key)
		if err != nil {
			return err
		}
		*t.dst = s
	}
	return nil
}

// checkFields rejects fields of v not listed in allowed.
func checkFields(v cue.Value, field string, allowed ...string) error {
	if v.IncompleteKind() != cue.StructKind {
		name := field
		if name == "" {
			name = "resource"
		}
		return &CompileError{Field: name, Message: "must be a struct", Pos: v.Pos()}
	}
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if !ok[iter.Label()] {
			name := iter.Label()
			if field != "" {
				name = field + "." + name
			}
			return &CompileError{Field: name, Message: "unknown field", Pos: iter.Value().Pos()}
		}
	}
	return nil
}

func requiredString(v cue.Value, key, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(key))
	if !sv.Exists() {
		return "", &CompileError{Field: field + "." + key, Message: key + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", &CompileError{Field: field + "." + key, Message: key + " must be a string", Pos: sv.Pos()}
	}
	if s == "" {
		return "", &CompileError{Field: field + "." + key, Message: key + " must not be empty", Pos: sv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, key string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(key))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", &CompileError{Field: key, Message: key + " must be a string", Pos: sv.Pos()}
	}
	return s, nil
}
