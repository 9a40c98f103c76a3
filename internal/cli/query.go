package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/corpusql/internal/compiler"
	"github.com/roach88/corpusql/internal/links"
	"github.com/roach88/corpusql/internal/planner"
	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/resource"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/token"
)

// QueryFlags are the flags shared by compile and run. Unset flags take
// their value from the selected profile.
type QueryFlags struct {
	Schemas     string
	Resource    string
	Links       string
	LinkProfile string
	Database    string

	Features      []string
	Dialect       string
	CaseSensitive bool
	Regex         bool
	Limit         int
	Inline        bool
}

func (q *QueryFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&q.Schemas, "schemas", "", "directory of CUE resource files")
	f.StringVarP(&q.Resource, "resource", "r", "", "corpus resource to query")
	f.StringVar(&q.Links, "links", "", "link registry file (YAML)")
	f.StringVar(&q.LinkProfile, "link-profile", "default", "profile inside the link registry")
	f.StringVar(&q.Database, "db", "", "path to SQLite corpus database")
	f.StringSliceVarP(&q.Features, "feature", "f", nil, "output feature (repeatable; default: the word feature)")
	f.StringVar(&q.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|mysql)")
	f.BoolVarP(&q.CaseSensitive, "case-sensitive", "c", false, "case-sensitive matching")
	f.BoolVar(&q.Regex, "regex", false, "treat specifiers as regular expressions")
	f.IntVar(&q.Limit, "limit", 0, "maximum number of rows (0: no limit)")
	f.BoolVar(&q.Inline, "inline", false, "quote values into the SQL instead of placeholders")
}

// applyProfile fills every flag the user did not set from the profile.
func (q *QueryFlags) applyProfile(cmd *cobra.Command, root *RootOptions) {
	p := root.profile
	changed := cmd.Flags().Changed
	setString := func(name string, dst *string, v string) {
		if !changed(name) && v != "" {
			*dst = v
		}
	}
	setString("schemas", &q.Schemas, p.Schemas)
	setString("resource", &q.Resource, p.Resource)
	setString("links", &q.Links, p.Links)
	setString("link-profile", &q.LinkProfile, p.LinkProfile)
	setString("db", &q.Database, p.Database)
	if !changed("dialect") {
		q.Dialect = p.Dialect.String()
	}
	if !changed("case-sensitive") {
		q.CaseSensitive = p.CaseSensitive
	}
	if !changed("regex") {
		q.Regex = p.Regex
	}
	if !changed("limit") {
		q.Limit = p.Limit
	}
}

func (q *QueryFlags) options() (resource.Options, error) {
	d, err := querysql.ParseDialect(q.Dialect)
	if err != nil {
		return resource.Options{}, err
	}
	if q.Limit < 0 {
		return resource.Options{}, fmt.Errorf("limit must not be negative, got %d", q.Limit)
	}
	return resource.Options{
		Dialect:        d,
		CaseSensitive:  q.CaseSensitive,
		RegexMode:      q.Regex,
		Limit:          q.Limit,
		InlineLiterals: q.Inline,
	}, nil
}

// openResource loads the schema directory and builds the resource the
// query flags name, together with its link registry.
func (q *QueryFlags) openResource() (*resource.Resource, error) {
	if q.Schemas == "" {
		return nil, commandError(ErrCodeNotFound, "--schemas is required", nil)
	}
	loaded, loadErrs := LoadSchemas(q.Schemas, LoadModeFailFast)
	if len(loadErrs) > 0 {
		return nil, commandError(loadErrorCode(loadErrs[0]), "loading schemas", loadErrs[0])
	}

	name := q.Resource
	if name == "" {
		if len(loaded.Resources) != 1 {
			return nil, commandError(ErrCodeUnknownResource,
				fmt.Sprintf("--resource is required when %s declares %d resources", q.Schemas, len(loaded.Resources)), nil)
		}
		name = loaded.Resources[0].Name
	}
	if _, ok := loaded.Find(name); !ok {
		return nil, commandError(ErrCodeUnknownResource, fmt.Sprintf("resource %q not found in %s", name, q.Schemas), nil)
	}

	schemas, err := compiler.BuildSchemas(loaded.Resources)
	if err != nil {
		return nil, commandError(ErrCodeGeneric, "building schemas", err)
	}
	var main *schema.Schema
	for _, s := range schemas {
		if s.Name() == name {
			main = s
		}
	}

	var reg *links.Registry
	if q.Links != "" {
		reg, err = links.LoadFile(q.Links, q.LinkProfile, schemas)
		if err != nil {
			return nil, commandError(ErrCodeLinks, "loading links", err)
		}
	}

	r, err := resource.New(main, reg)
	if err != nil {
		return nil, commandError(ErrCodeGeneric, "building resource", err)
	}
	slog.Debug("resource loaded", "resource", name, "schemas", q.Schemas, "links", len(reg.Links()))
	return r, nil
}

// queryErrorCode classifies a compile error.
func queryErrorCode(err error) string {
	var syntaxErr *token.SyntaxError
	var malformed *schema.MalformedFeatureError
	var unreachable *planner.UnreachableFeatureError
	var unknownLink *links.UnknownLinkError
	switch {
	case errors.As(err, &syntaxErr):
		return ErrCodeQuerySyntax
	case errors.As(err, &malformed), errors.As(err, &unreachable), errors.As(err, &unknownLink):
		return ErrCodeQueryFeature
	default:
		return ErrCodeQueryCompile
	}
}
