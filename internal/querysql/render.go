// Package querysql renders queryir trees as SQL text for SQLite or MySQL.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/corpusql/internal/queryir"
)

// Renderer turns a query tree into SQL.
//
// By default every literal becomes a ? placeholder and its value is
// returned in the parameter slice, in textual order. With InlineLiterals
// set, literals are quoted into the text instead and no parameters are
// returned; that form is meant for display and logs.
type Renderer struct {
	Dialect        Dialect
	InlineLiterals bool
}

// Render validates q and renders it.
func (r Renderer) Render(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("render: %w", err)
	}
	w := &writer{r: r}
	switch query := q.(type) {
	case *queryir.Select:
		w.selectStmt(query)
	case *queryir.Union:
		for i, sel := range query.Selects {
			if i > 0 {
				w.WriteString(" UNION ALL ")
			}
			w.selectStmt(sel)
		}
		w.limit(query.Limit)
	}
	if w.err != nil {
		return "", nil, w.err
	}
	return w.String(), w.params, nil
}

type writer struct {
	strings.Builder
	r      Renderer
	params []any
	err    error
}

func (w *writer) selectStmt(s *queryir.Select) {
	w.WriteString("SELECT ")
	if s.Distinct {
		w.WriteString("DISTINCT ")
	}
	for i, c := range s.Columns {
		if i > 0 {
			w.WriteString(", ")
		}
		w.expr(c.Expr)
		if c.Alias != "" {
			w.WriteString(" AS ")
			w.WriteString(c.Alias)
		}
	}
	w.WriteString(" FROM ")
	w.tableRef(s.From)
	for _, j := range s.Joins {
		w.WriteByte(' ')
		w.WriteString(j.Kind.String())
		w.WriteByte(' ')
		w.tableRef(j.Table)
		w.WriteString(" ON ")
		w.predicate(j.On, false)
	}
	if s.Where != nil {
		w.WriteString(" WHERE ")
		w.predicate(s.Where, false)
	}
	w.limit(s.Limit)
}

func (w *writer) limit(n int) {
	if n > 0 {
		w.WriteString(" LIMIT ")
		w.WriteString(strconv.Itoa(n))
	}
}

func (w *writer) tableRef(t queryir.TableRef) {
	if t.Database != "" {
		w.WriteString(t.Database)
		w.WriteByte('.')
	}
	w.WriteString(t.Table)
	if t.Alias != "" {
		w.WriteString(" AS ")
		w.WriteString(t.Alias)
	}
}

func (w *writer) expr(e queryir.Expr) {
	switch expr := e.(type) {
	case queryir.ColumnRef:
		w.WriteString(expr.Table)
		w.WriteByte('.')
		w.WriteString(expr.Column)
	case queryir.Literal:
		w.literal(expr.Value)
	case queryir.Null:
		w.WriteString("NULL")
	case queryir.Offset:
		w.expr(expr.Column)
		switch {
		case expr.Delta > 0:
			w.WriteString(" + ")
			w.WriteString(strconv.Itoa(expr.Delta))
		case expr.Delta < 0:
			w.WriteString(" - ")
			w.WriteString(strconv.Itoa(-expr.Delta))
		}
	case queryir.Text:
		w.text(expr)
	default:
		w.fail("unsupported operand %T", e)
	}
}

func (w *writer) text(t queryir.Text) {
	switch {
	case w.r.Dialect == MySQL && t.CaseSensitive:
		w.WriteString("BINARY ")
		w.expr(t.Expr)
	case w.r.Dialect == MySQL:
		w.expr(t.Expr)
	case t.CaseSensitive:
		w.expr(t.Expr)
		w.WriteString(" COLLATE BINARY")
	default:
		w.expr(t.Expr)
		w.WriteString(" COLLATE NOCASE")
	}
}

func (w *writer) literal(v any) {
	if !w.r.InlineLiterals {
		w.WriteByte('?')
		w.params = append(w.params, normaliseParam(v))
		return
	}
	switch val := v.(type) {
	case string:
		w.WriteString(w.quote(val))
	case int64:
		w.WriteString(strconv.FormatInt(val, 10))
	case int:
		w.WriteString(strconv.Itoa(val))
	default:
		w.fail("unsupported literal %T", v)
	}
}

func normaliseParam(v any) any {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}

func (w *writer) quote(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	if w.r.Dialect == MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}

// predicate writes p. nested is set inside AND, OR and NOT so a
// multi-term AND gets parentheses.
func (w *writer) predicate(p queryir.Predicate, nested bool) {
	switch pred := p.(type) {
	case queryir.Compare:
		w.expr(pred.Left)
		w.WriteByte(' ')
		w.WriteString(pred.Op.String())
		w.WriteByte(' ')
		w.expr(pred.Right)
	case queryir.In:
		if len(pred.Values) == 0 {
			w.constant(pred.Negated)
			return
		}
		w.expr(pred.Left)
		w.WriteString(negate(pred.Negated, " IN ("))
		for i, v := range pred.Values {
			if i > 0 {
				w.WriteString(", ")
			}
			w.expr(v)
		}
		w.WriteByte(')')
	case queryir.InSubquery:
		w.expr(pred.Left)
		w.WriteString(negate(pred.Negated, " IN ("))
		w.selectStmt(pred.Query)
		w.WriteByte(')')
	case queryir.Like:
		w.expr(pred.Left)
		w.WriteString(negate(pred.Negated, " LIKE "))
		w.expr(pred.Pattern)
		if w.r.Dialect == SQLite {
			w.WriteString(` ESCAPE '\'`)
		}
	case queryir.Regexp:
		w.expr(pred.Left)
		w.WriteString(negate(pred.Negated, " REGEXP "))
		w.expr(w.regexPattern(pred))
	case queryir.And:
		switch len(pred.Predicates) {
		case 0:
			w.constant(true)
		case 1:
			w.predicate(pred.Predicates[0], nested)
		default:
			if nested {
				w.WriteByte('(')
			}
			w.join(pred.Predicates, " AND ")
			if nested {
				w.WriteByte(')')
			}
		}
	case queryir.Or:
		switch len(pred.Predicates) {
		case 0:
			w.constant(false)
		case 1:
			w.predicate(pred.Predicates[0], nested)
		default:
			w.WriteByte('(')
			w.join(pred.Predicates, " OR ")
			w.WriteByte(')')
		}
	case queryir.Not:
		w.WriteString("NOT (")
		w.predicate(pred.Predicate, false)
		w.WriteByte(')')
	case queryir.False:
		w.constant(false)
	default:
		w.fail("unsupported predicate %T", p)
	}
}

func (w *writer) join(preds []queryir.Predicate, sep string) {
	for i, sub := range preds {
		if i > 0 {
			w.WriteString(sep)
		}
		w.predicate(sub, true)
	}
}

func (w *writer) constant(truth bool) {
	if truth {
		w.WriteString("1 = 1")
	} else {
		w.WriteString("1 = 0")
	}
}

// regexPattern adds an inline (?i) flag for case-insensitive SQLite
// matches; the REGEXP function ignores collations.
func (w *writer) regexPattern(r queryir.Regexp) queryir.Expr {
	if w.r.Dialect != SQLite {
		return r.Pattern
	}
	text, ok := r.Left.(queryir.Text)
	if !ok || text.CaseSensitive {
		return r.Pattern
	}
	lit, ok := r.Pattern.(queryir.Literal)
	if !ok {
		return r.Pattern
	}
	if s, ok := lit.Value.(string); ok {
		return queryir.Literal{Value: "(?i)" + s}
	}
	return r.Pattern
}

func negate(negated bool, op string) string {
	if negated {
		return " NOT" + op
	}
	return op
}

func (w *writer) fail(format string, args ...any) {
	if w.err == nil {
		w.err = fmt.Errorf("render: "+format, args...)
	}
}
