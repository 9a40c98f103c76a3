package queryir

import (
	"fmt"
	"strings"
)

// ValidationError lists structural problems found in a query tree.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks the structural rules every renderer relies on:
//  1. Every select has at least one column and a FROM table with an alias.
//  2. Aliases are unique within a select.
//  3. Every join has an ON predicate.
//  4. Union members share a column count and carry no limit of their own.
//  5. No nil operands.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case *Select:
		v.validateSelect(query, "select")
	case *Union:
		v.validateUnion(query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateUnion(u *Union) {
	if len(u.Selects) == 0 {
		v.addProblem("union without members")
		return
	}
	width := len(u.Selects[0].Columns)
	for i, sel := range u.Selects {
		where := fmt.Sprintf("union member %d", i+1)
		if sel == nil {
			v.addProblem("%s is nil", where)
			continue
		}
		v.validateSelect(sel, where)
		if len(sel.Columns) != width {
			v.addProblem("%s has %d columns, want %d", where, len(sel.Columns), width)
		}
		if sel.Limit != 0 {
			v.addProblem("%s has its own limit", where)
		}
	}
}

func (v *validator) validateSelect(s *Select, where string) {
	if s == nil {
		v.addProblem("%s is nil", where)
		return
	}
	if len(s.Columns) == 0 {
		v.addProblem("%s has no columns", where)
	}
	if s.From.Table == "" {
		v.addProblem("%s has no FROM table", where)
	}
	seen := make(map[string]bool)
	for _, alias := range s.Aliases() {
		if alias == "" {
			v.addProblem("%s has a table without alias", where)
			continue
		}
		if seen[alias] {
			v.addProblem("%s reuses alias %s", where, alias)
		}
		seen[alias] = true
	}
	for _, c := range s.Columns {
		v.validateExpr(c.Expr, where)
	}
	for _, j := range s.Joins {
		if j.On == nil {
			v.addProblem("%s joins %s without ON", where, j.Table.Alias)
			continue
		}
		v.validatePredicate(j.On, where)
	}
	if s.Where != nil {
		v.validatePredicate(s.Where, where)
	}
	if s.Limit < 0 {
		v.addProblem("%s has negative limit", where)
	}
}

func (v *validator) validatePredicate(p Predicate, where string) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("%s has a nil predicate", where)
	case Compare:
		v.validateExpr(pred.Left, where)
		v.validateExpr(pred.Right, where)
	case In:
		v.validateExpr(pred.Left, where)
		for _, e := range pred.Values {
			v.validateExpr(e, where)
		}
	case InSubquery:
		v.validateExpr(pred.Left, where)
		v.validateSelect(pred.Query, where+" subquery")
	case Like:
		v.validateExpr(pred.Left, where)
		v.validateExpr(pred.Pattern, where)
	case Regexp:
		v.validateExpr(pred.Left, where)
		v.validateExpr(pred.Pattern, where)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, where)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, where)
		}
	case Not:
		v.validatePredicate(pred.Predicate, where)
	case False:
	default:
		v.addProblem("%s has unknown predicate type %T", where, p)
	}
}

func (v *validator) validateExpr(e Expr, where string) {
	switch expr := e.(type) {
	case nil:
		v.addProblem("%s has a nil operand", where)
	case ColumnRef:
		if expr.Table == "" || expr.Column == "" {
			v.addProblem("%s has an incomplete column reference %q.%q", where, expr.Table, expr.Column)
		}
	case Literal:
		switch expr.Value.(type) {
		case string, int64, int:
		default:
			v.addProblem("%s has unsupported literal type %T", where, expr.Value)
		}
	case Null:
	case Offset:
		v.validateExpr(expr.Column, where)
	case Text:
		v.validateExpr(expr.Expr, where)
	default:
		v.addProblem("%s has unknown operand type %T", where, e)
	}
}
