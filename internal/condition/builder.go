package condition

import (
	"fmt"
	"strings"

	"github.com/roach88/corpusql/internal/graph"
	"github.com/roach88/corpusql/internal/queryir"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/token"
)

// Conditions are the predicates of one token position, grouped by the
// table whose alias they reference.
type Conditions struct {
	Position int
	Negated  bool

	// Tables lists the tables referenced, in order of first use.
	Tables  []string
	ByTable map[string][]queryir.Predicate

	matchNothing bool
}

// Empty reports whether the position carries no condition at all.
func (c *Conditions) Empty() bool {
	return c == nil || (len(c.Tables) == 0 && !c.matchNothing)
}

// Predicate combines every condition with AND. It returns nil when the
// position is unconstrained.
func (c *Conditions) Predicate() queryir.Predicate {
	if c == nil {
		return nil
	}
	if c.matchNothing {
		return queryir.False{}
	}
	var preds []queryir.Predicate
	for _, t := range c.Tables {
		preds = append(preds, c.ByTable[t]...)
	}
	p := queryir.Conjoin(preds...)
	if p == nil || !c.Negated {
		return p
	}
	if len(preds) == 1 {
		return Negate(p)
	}
	return queryir.Not{Predicate: p}
}

func (c *Conditions) add(table string, p queryir.Predicate) {
	if p == nil {
		return
	}
	if _, ok := c.ByTable[table]; !ok {
		c.Tables = append(c.Tables, table)
	}
	c.ByTable[table] = append(c.ByTable[table], p)
}

// Builder builds conditions for one schema. It holds no per-query state
// and may be shared.
type Builder struct {
	Graph         *graph.Graph
	CaseSensitive bool
}

// Build returns the conditions of tok at the 1-based position. A nil
// token, or one whose specifiers all match everything, yields empty
// conditions; negated, it yields a predicate that never matches.
func (b *Builder) Build(tok *token.Token, position int) (*Conditions, error) {
	c := &Conditions{Position: position, ByTable: make(map[string][]queryir.Predicate)}
	if tok == nil {
		return c, nil
	}
	c.Negated = tok.Negated

	s := b.Graph.Schema()
	q := s.Query()
	features := map[token.Kind]string{
		token.KindWord:       q.Word,
		token.KindLemma:      q.Lemma,
		token.KindPOS:        q.POS,
		token.KindTranscript: q.Transcript,
		token.KindGloss:      q.Gloss,
	}

	for _, kind := range token.Kinds {
		specs := tok.Specifiers(kind)
		if len(specs) == 0 || anyMatchesAll(specs) {
			continue
		}
		feature := features[kind]
		if feature == "" {
			return nil, &UnsupportedKindError{Kind: kind, Schema: s.Name()}
		}

		if kind == token.KindWord && tok.Lemmatize {
			if err := b.lemmatized(c, specs, position, features[token.KindLemma]); err != nil {
				return nil, err
			}
			continue
		}

		info, err := s.Lookup(feature)
		if err != nil {
			return nil, err
		}
		operand := b.text(schema.Alias(info.Table, position), info.Column)
		c.add(info.Table, Match(operand, specs))
	}

	if tok.Negated && len(c.Tables) == 0 {
		c.matchNothing = true
	}
	return c, nil
}

func (b *Builder) text(alias, column string) queryir.Text {
	return queryir.Text{
		Expr:          queryir.ColumnRef{Table: alias, Column: column},
		CaseSensitive: b.CaseSensitive,
	}
}

// lemmatized adds lemma IN (SELECT DISTINCT lemma FROM word..lemma WHERE word match).
func (b *Builder) lemmatized(c *Conditions, words []token.Specifier, position int, lemmaFeature string) error {
	s := b.Graph.Schema()
	if lemmaFeature == "" {
		return &UnsupportedKindError{Kind: token.KindLemma, Schema: s.Name()}
	}
	word, err := s.Lookup(s.Query().Word)
	if err != nil {
		return err
	}
	lemma, err := s.Lookup(lemmaFeature)
	if err != nil {
		return err
	}
	path, err := b.Graph.PathBetween(word.Table, lemma.Table)
	if err != nil {
		return fmt.Errorf("lemmatize %s: %w", lemmaFeature, err)
	}

	sub, err := PathSelect(s, path, func(table string) string { return subAlias(table, position) })
	if err != nil {
		return err
	}
	sub.Distinct = true
	sub.Columns = []queryir.Column{{Expr: queryir.ColumnRef{Table: subAlias(lemma.Table, position), Column: lemma.Column}}}
	sub.Where = Match(b.text(subAlias(word.Table, position), word.Column), words)

	c.add(lemma.Table, queryir.InSubquery{
		Left:  b.text(schema.Alias(lemma.Table, position), lemma.Column),
		Query: sub,
	})
	return nil
}

func subAlias(table string, position int) string {
	return fmt.Sprintf("SUB_%s_%d", strings.ToUpper(table), position)
}

// PathSelect returns a column-less select over a table path, joining each
// table to its predecessor with INNER joins.
func PathSelect(s *schema.Schema, path []string, alias func(string) string) (*queryir.Select, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty table path")
	}
	first, ok := s.Table(path[0])
	if !ok {
		return nil, fmt.Errorf("unknown table %q", path[0])
	}
	sel := &queryir.Select{From: queryir.TableRef{Table: first.Physical, Alias: alias(path[0])}}
	for i := 1; i < len(path); i++ {
		parent, child := path[i-1], path[i]
		t, ok := s.Table(child)
		if !ok {
			return nil, fmt.Errorf("unknown table %q", child)
		}
		on, err := EdgePredicate(s, parent, child, alias(parent), alias(child))
		if err != nil {
			return nil, err
		}
		sel.Joins = append(sel.Joins, queryir.Join{
			Kind:  queryir.InnerJoin,
			Table: queryir.TableRef{Table: t.Physical, Alias: alias(child)},
			On:    on,
		})
	}
	return sel, nil
}

// EdgePredicate returns the ON condition joining child to parent. Id
// edges compare <child>_id with <parent>_<child>_id; annotation edges
// test time-range overlap within the same origin.
func EdgePredicate(s *schema.Schema, parent, child, parentAlias, childAlias string) (queryir.Predicate, error) {
	if t, ok := s.Table(child); ok && t.Annotation != nil && t.Annotation.Parent == parent {
		return overlap(s, t.Annotation, parentAlias, childAlias)
	}
	link, err := s.LinkFeature(parent, child)
	if err != nil {
		return nil, err
	}
	id, err := s.IDFeature(child)
	if err != nil {
		return nil, err
	}
	return queryir.Compare{
		Left:  queryir.ColumnRef{Table: childAlias, Column: id.Column},
		Op:    queryir.OpEq,
		Right: queryir.ColumnRef{Table: parentAlias, Column: link.Column},
	}, nil
}

func overlap(s *schema.Schema, a *schema.Annotation, parentAlias, childAlias string) (queryir.Predicate, error) {
	col := func(feature, alias string) (queryir.ColumnRef, error) {
		info, err := s.Lookup(feature)
		if err != nil {
			return queryir.ColumnRef{}, err
		}
		return queryir.ColumnRef{Table: alias, Column: info.Column}, nil
	}
	var refs [6]queryir.ColumnRef
	for i, f := range []struct{ feature, alias string }{
		{a.Start, childAlias}, {a.ParentEnd, parentAlias},
		{a.End, childAlias}, {a.ParentStart, parentAlias},
		{a.Origin, childAlias}, {a.ParentOrigin, parentAlias},
	} {
		ref, err := col(f.feature, f.alias)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}
	return queryir.And{Predicates: []queryir.Predicate{
		queryir.Compare{Left: refs[0], Op: queryir.OpLt, Right: refs[1]},
		queryir.Compare{Left: refs[2], Op: queryir.OpGt, Right: refs[3]},
		queryir.Compare{Left: refs[4], Op: queryir.OpEq, Right: refs[5]},
	}}, nil
}

func anyMatchesAll(specs []token.Specifier) bool {
	for _, s := range specs {
		if s.MatchesAll() {
			return true
		}
	}
	return false
}

// Match returns the predicate matching operand against a specifier list.
func Match(operand queryir.Expr, specs []token.Specifier) queryir.Predicate {
	var (
		alternatives []queryir.Predicate
		literals     []queryir.Expr
	)
	for _, s := range specs {
		switch {
		case s.Regex:
			alternatives = append(alternatives, queryir.Regexp{Left: operand, Pattern: queryir.Literal{Value: s.Pattern}})
		case s.Wildcard:
			alternatives = append(alternatives, queryir.Like{Left: operand, Pattern: queryir.Literal{Value: s.Pattern}})
		default:
			literals = append(literals, queryir.Literal{Value: s.Literal})
		}
	}
	switch len(literals) {
	case 0:
	case 1:
		alternatives = append(alternatives, queryir.Compare{Left: operand, Op: queryir.OpEq, Right: literals[0]})
	default:
		alternatives = append(alternatives, queryir.In{Left: operand, Values: literals})
	}
	return queryir.Disjoin(alternatives...)
}

// Negate returns the logical negation of p, flipping operators where the
// predicate has a negated form.
func Negate(p queryir.Predicate) queryir.Predicate {
	switch v := p.(type) {
	case queryir.Compare:
		switch v.Op {
		case queryir.OpEq:
			v.Op = queryir.OpNotEq
			return v
		case queryir.OpNotEq:
			v.Op = queryir.OpEq
			return v
		}
	case queryir.In:
		v.Negated = !v.Negated
		return v
	case queryir.InSubquery:
		v.Negated = !v.Negated
		return v
	case queryir.Like:
		v.Negated = !v.Negated
		return v
	case queryir.Regexp:
		v.Negated = !v.Negated
		return v
	case queryir.Or:
		negated := make([]queryir.Predicate, len(v.Predicates))
		for i, sub := range v.Predicates {
			negated[i] = Negate(sub)
		}
		return queryir.And{Predicates: negated}
	case queryir.Not:
		return v.Predicate
	}
	return queryir.Not{Predicate: p}
}
