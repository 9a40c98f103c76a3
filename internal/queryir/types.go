package queryir

// Query is a complete statement: a Select or a Union of Selects.
type Query interface {
	queryNode()
}

// Predicate is a boolean condition used in WHERE and ON clauses.
type Predicate interface {
	predicateNode()
}

// Expr is a scalar operand.
type Expr interface {
	exprNode()
}

// TableRef names a physical table and the alias it is joined under.
// Database is set for tables of a linked corpus.
type TableRef struct {
	Database string
	Table    string
	Alias    string
}

// JoinKind selects INNER or LEFT joins.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

func (k JoinKind) String() string {
	if k == LeftJoin {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// Join is one join clause.
type Join struct {
	Kind  JoinKind
	Table TableRef
	On    Predicate
}

// Column is one output column.
type Column struct {
	Expr  Expr
	Alias string
}

// Select is a single SELECT statement.
//
//	SELECT [DISTINCT] <columns> FROM <from> <joins> [WHERE <where>] [LIMIT <limit>]
//
// A nil Where means no filter. Limit 0 means no limit.
type Select struct {
	Distinct bool
	Columns  []Column
	From     TableRef
	Joins    []Join
	Where    Predicate
	Limit    int
}

func (*Select) queryNode() {}

// Aliases lists the alias of From followed by every join alias, in
// clause order.
func (s *Select) Aliases() []string {
	out := make([]string, 0, len(s.Joins)+1)
	out = append(out, s.From.Alias)
	for _, j := range s.Joins {
		out = append(out, j.Table.Alias)
	}
	return out
}

// Union combines selects with UNION ALL. Members must not carry their own
// limit; Limit applies to the combined result.
type Union struct {
	Selects []*Select
	Limit   int
}

func (*Union) queryNode() {}

// ColumnRef is <alias>.<column>.
type ColumnRef struct {
	Table  string
	Column string
}

func (ColumnRef) exprNode() {}

// Literal is a value supplied by the user or the schema. Value is a
// string or an int64.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

// Null is the NULL literal, used to pad columns of empty positions.
type Null struct{}

func (Null) exprNode() {}

// Offset is <column> + Delta. Delta may be negative.
type Offset struct {
	Column ColumnRef
	Delta  int
}

func (Offset) exprNode() {}

// Text marks a textual operand compared with the given case sensitivity.
type Text struct {
	Expr          Expr
	CaseSensitive bool
}

func (Text) exprNode() {}

// CompareOp is a binary comparison operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNotEq
	OpLt
	OpGt
)

func (op CompareOp) String() string {
	switch op {
	case OpNotEq:
		return "<>"
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	default:
		return "="
	}
}

// Compare is <left> <op> <right>.
type Compare struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

func (Compare) predicateNode() {}

// In is <left> [NOT] IN (<values>).
type In struct {
	Left    Expr
	Values  []Expr
	Negated bool
}

func (In) predicateNode() {}

// InSubquery is <left> [NOT] IN (<query>).
type InSubquery struct {
	Left    Expr
	Query   *Select
	Negated bool
}

func (InSubquery) predicateNode() {}

// Like is <left> [NOT] LIKE <pattern>. Patterns escape with a backslash.
type Like struct {
	Left    Expr
	Pattern Expr
	Negated bool
}

func (Like) predicateNode() {}

// Regexp is <left> [NOT] REGEXP <pattern>.
type Regexp struct {
	Left    Expr
	Pattern Expr
	Negated bool
}

func (Regexp) predicateNode() {}

// And is true when every predicate is true. An empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is true when any predicate is true. An empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// False never matches.
type False struct{}

func (False) predicateNode() {}

// Conjoin ANDs predicates, dropping nils and flattening nested Ands. It
// returns nil when nothing is left and the predicate itself when only
// one is.
func Conjoin(preds ...Predicate) Predicate {
	var flat []Predicate
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case And:
			flat = append(flat, v.Predicates...)
		default:
			flat = append(flat, p)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return And{Predicates: flat}
}

// Disjoin ORs predicates, dropping nils. It returns nil when nothing is
// left and the predicate itself when only one is.
func Disjoin(preds ...Predicate) Predicate {
	var flat []Predicate
	for _, p := range preds {
		if p != nil {
			flat = append(flat, p)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return Or{Predicates: flat}
}
