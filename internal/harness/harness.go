package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/corpusql/internal/compiler"
	"github.com/roach88/corpusql/internal/links"
	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/resource"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/store"
	"github.com/roach88/corpusql/internal/testutil"
	"github.com/roach88/corpusql/internal/token"
)

// Harness runs the steps of one scenario against a fresh database.
type Harness struct {
	store    *store.Store
	resource *resource.Resource
	isPOS    token.PartOfSpeechFunc
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a fixed query id,
// so repeated runs produce identical traces. The returned error reports
// a broken scenario setup; failed expectations are recorded in the
// result instead.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	schemas, err := loadSchemas(scenario.Schemas)
	if err != nil {
		return nil, err
	}
	main, ok := schemas[scenario.Resource]
	if !ok {
		return nil, fmt.Errorf("resource %q is not declared in %v", scenario.Resource, scenario.Schemas)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := createTables(ctx, st, main, schemas); err != nil {
		return nil, err
	}
	if err := insertFixtures(ctx, st, main, schemas, scenario.Fixtures); err != nil {
		return nil, err
	}

	var reg *links.Registry
	if scenario.Links != "" {
		profile := scenario.LinkProfile
		if profile == "" {
			profile = "default"
		}
		foreign := make([]*schema.Schema, 0, len(schemas))
		for _, s := range schemas {
			foreign = append(foreign, s)
		}
		if reg, err = links.LoadFile(scenario.Links, profile, foreign); err != nil {
			return nil, err
		}
	}

	r, err := resource.New(main, reg, resource.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.QueryID)))
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:    st,
		resource: r,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if main.Query().POS != "" {
		if h.isPOS, err = st.PartOfSpeech(ctx, main); err != nil {
			return nil, err
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		trace := h.executeStep(ctx, step)
		result.Trace = append(result.Trace, trace)
		for _, msg := range checkExpect(step.Expect, trace) {
			result.AddError(fmt.Sprintf("steps[%d]: %s", i, msg))
		}
		h.logger.Info("step completed",
			"step", i,
			"query", step.Query,
			"rows", len(trace.Rows),
			"error", trace.Error,
		)
	}
	return result, nil
}

// executeStep compiles and, on sqlite, runs one step. Compile and run
// errors end up in the trace.
func (h *Harness) executeStep(ctx context.Context, step Step) StepTrace {
	trace := StepTrace{
		Query:    step.Query,
		Features: step.Features,
		Dialect:  step.Options.Dialect.String(),
	}

	q, err := h.resource.Compile(step.Query, step.Features, resource.Options{
		Dialect:        step.Options.Dialect,
		CaseSensitive:  step.Options.CaseSensitive,
		RegexMode:      step.Options.Regex,
		Limit:          step.Options.Limit,
		IsPartOfSpeech: h.isPOS,
		InlineLiterals: step.Options.InlineLiterals,
	})
	if err != nil {
		trace.Error = err.Error()
		return trace
	}
	trace.SQL = q.SQL
	trace.Params = q.Params
	for _, c := range q.Columns {
		trace.Columns = append(trace.Columns, c.Alias)
	}
	if q.Dialect != querysql.SQLite {
		return trace
	}

	res, err := h.store.Run(ctx, q)
	if err != nil {
		trace.Error = err.Error()
		return trace
	}
	trace.Rows = res.Rows
	return trace
}

func loadSchemas(paths []string) (map[string]*schema.Schema, error) {
	var descs []*schema.Description
	for _, p := range paths {
		ds, err := compiler.CompileFile(p)
		if err != nil {
			return nil, err
		}
		descs = append(descs, ds...)
	}
	built, err := compiler.BuildSchemas(descs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*schema.Schema, len(built))
	for _, s := range built {
		if _, dup := out[s.Name()]; dup {
			return nil, fmt.Errorf("resource %s declared twice", s.Name())
		}
		out[s.Name()] = s
	}
	return out, nil
}

// createTables creates the main resource in the main database and every
// other resource in an attached in-memory database named after it.
func createTables(ctx context.Context, st *store.Store, main *schema.Schema, schemas map[string]*schema.Schema) error {
	if err := st.CreateTables(ctx, main, ""); err != nil {
		return err
	}
	for _, s := range schemas {
		if s == main {
			continue
		}
		if err := st.Attach(ctx, ":memory:", s.DBName()); err != nil {
			return err
		}
		if err := st.CreateTables(ctx, s, s.DBName()); err != nil {
			return err
		}
	}
	return nil
}

func insertFixtures(ctx context.Context, st *store.Store, main *schema.Schema, schemas map[string]*schema.Schema, fixtures []Fixture) error {
	for i, f := range fixtures {
		target, database := main, ""
		if f.Resource != "" && f.Resource != main.Name() {
			s, ok := schemas[f.Resource]
			if !ok {
				return fmt.Errorf("fixtures[%d]: unknown resource %q", i, f.Resource)
			}
			target, database = s, s.DBName()
		}
		records := make([]store.Record, len(f.Rows))
		for j, row := range f.Rows {
			records[j] = store.Record(row)
		}
		if err := st.Insert(ctx, target, database, f.Table, records); err != nil {
			return fmt.Errorf("fixtures[%d]: %w", i, err)
		}
	}
	return nil
}
