package resource

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/corpusql/internal/condition"
	"github.com/roach88/corpusql/internal/graph"
	"github.com/roach88/corpusql/internal/links"
	"github.com/roach88/corpusql/internal/planner"
	"github.com/roach88/corpusql/internal/queryir"
	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/token"
)

// IDGenerator produces query ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query ids. It is
// stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options are the per-call compile settings.
type Options struct {
	Dialect       querysql.Dialect
	CaseSensitive bool
	RegexMode     bool

	// Limit caps the number of rows; 0 means no limit.
	Limit int

	// IsPartOfSpeech decides whether a bracketed specifier is a
	// part-of-speech tag. Nil treats every bracket as a lemma.
	IsPartOfSpeech token.PartOfSpeechFunc

	// InlineLiterals quotes values into the SQL text instead of using
	// placeholders.
	InlineLiterals bool
}

// Compiled is the result of one compilation.
type Compiled struct {
	ID            string               `json:"id"`
	Dialect       querysql.Dialect     `json:"dialect"`
	CaseSensitive bool                 `json:"case_sensitive"`
	SQL           string               `json:"sql"`
	Params        []any                `json:"params,omitempty"`
	Columns       []planner.ColumnInfo `json:"columns"`
	Alternatives  int                  `json:"alternatives"`
}

// Resource compiles queries against one corpus schema.
type Resource struct {
	schema *schema.Schema
	graph  *graph.Graph
	links  *links.Registry
	ids    IDGenerator

	// planners are keyed by case sensitivity.
	planners [2]*planner.Planner
}

// Option configures a Resource.
type Option func(*Resource)

// WithIDGenerator replaces the UUIDv7 query id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Resource) {
		r.ids = g
	}
}

// New builds a Resource for s. reg may be nil when the profile declares
// no links.
func New(s *schema.Schema, reg *links.Registry, opts ...Option) (*Resource, error) {
	g, err := graph.New(s)
	if err != nil {
		return nil, err
	}
	r := &Resource{schema: s, graph: g, links: reg, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(r)
	}
	for i, sensitive := range []bool{false, true} {
		p, err := planner.New(g, reg, &condition.Builder{Graph: g, CaseSensitive: sensitive})
		if err != nil {
			return nil, err
		}
		r.planners[i] = p
	}
	return r, nil
}

// Schema returns the corpus schema.
func (r *Resource) Schema() *schema.Schema {
	return r.schema
}

// Links returns the link registry, which may be nil.
func (r *Resource) Links() *links.Registry {
	return r.links
}

// Compile compiles query items selecting features. With no features the
// word feature is selected.
func (r *Resource) Compile(items, features []string, opts Options) (*Compiled, error) {
	id := r.ids.Generate()
	fail := func(item int, input string, err error) error {
		return &CompileError{QueryID: id, Item: item, Input: input, Err: err}
	}
	if len(items) == 0 {
		return nil, fail(0, "", ErrNoItems)
	}
	if len(features) == 0 && r.schema.Query().Word != "" {
		features = []string{r.schema.Query().Word}
	}

	parser := token.NewParser(opts.RegexMode, opts.IsPartOfSpeech)
	toks := make([]*token.Token, len(items))
	for i, item := range items {
		tok, err := parser.Parse(item)
		if err != nil {
			return nil, fail(i+1, item, err)
		}
		toks[i] = tok
	}

	p := r.planners[0]
	if opts.CaseSensitive {
		p = r.planners[1]
	}

	var plans []*planner.Plan
	for _, seq := range token.Expand(toks) {
		plan, err := p.Plan(seq, features)
		if errors.Is(err, planner.ErrEmptySequence) {
			continue
		}
		if err != nil {
			return nil, fail(0, "", err)
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return nil, fail(0, "", planner.ErrEmptySequence)
	}

	q, err := assemble(plans, opts.Limit)
	if err != nil {
		return nil, fail(0, "", err)
	}
	renderer := querysql.Renderer{Dialect: opts.Dialect, InlineLiterals: opts.InlineLiterals}
	sql, params, err := renderer.Render(q)
	if err != nil {
		return nil, fail(0, "", err)
	}

	slog.Debug("query compiled",
		"query_id", id,
		"corpus", r.schema.Name(),
		"dialect", opts.Dialect.String(),
		"alternatives", len(plans),
		"tables", len(plans[0].Select.Aliases()),
		"columns", len(plans[0].Columns))

	return &Compiled{
		ID:            id,
		Dialect:       opts.Dialect,
		CaseSensitive: opts.CaseSensitive,
		SQL:           sql,
		Params:        params,
		Columns:       plans[0].Columns,
		Alternatives:  len(plans),
	}, nil
}

// assemble returns the single planned select, or the UNION ALL of all
// alternatives. Alternatives share their slot count, so their column
// lists must agree.
func assemble(plans []*planner.Plan, limit int) (queryir.Query, error) {
	if len(plans) == 1 {
		plans[0].Select.Limit = limit
		return plans[0].Select, nil
	}
	u := &queryir.Union{Limit: limit}
	for i, plan := range plans {
		if !sameColumns(plans[0].Columns, plan.Columns) {
			return nil, fmt.Errorf("alternative %d selects different columns", i+1)
		}
		u.Selects = append(u.Selects, plan.Select)
	}
	return u, nil
}

func sameColumns(a, b []planner.ColumnInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Alias != b[i].Alias {
			return false
		}
	}
	return true
}

// CompileQuery builds a throwaway Resource and compiles one query.
func CompileQuery(s *schema.Schema, reg *links.Registry, items, features []string, opts Options) (*Compiled, error) {
	r, err := New(s, reg)
	if err != nil {
		return nil, err
	}
	return r.Compile(items, features, opts)
}
