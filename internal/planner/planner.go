package planner

import (
	"fmt"
	"sort"

	"github.com/roach88/corpusql/internal/condition"
	"github.com/roach88/corpusql/internal/graph"
	"github.com/roach88/corpusql/internal/links"
	"github.com/roach88/corpusql/internal/queryir"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/token"
)

// ColumnInfo maps an output column back to the feature it carries.
type ColumnInfo struct {
	Alias         string `json:"alias"`
	Feature       string `json:"feature"`
	Label         string `json:"label"`
	Position      int    `json:"position"`
	TokenPosition bool   `json:"token_position"`
	LinkHash      string `json:"link_hash,omitempty"`
	Schema        string `json:"schema,omitempty"`
	OneToMany     bool   `json:"one_to_many,omitempty"`
}

// Plan is the planned select of one token sequence.
type Plan struct {
	Select  *queryir.Select
	Columns []ColumnInfo
	Driver  int
	Slots   int
}

// Planner plans selects against one schema and its link registry.
type Planner struct {
	graph    *graph.Graph
	links    *links.Registry
	builder  *condition.Builder
	foreign  map[string]*graph.Graph
	treeRank map[string]int
}

// New returns a Planner. reg may be nil when no linked features are
// used. The graphs of every foreign schema in reg are built up front.
func New(g *graph.Graph, reg *links.Registry, b *condition.Builder) (*Planner, error) {
	p := &Planner{
		graph:    g,
		links:    reg,
		builder:  b,
		foreign:  make(map[string]*graph.Graph),
		treeRank: make(map[string]int),
	}
	for i, t := range g.TableTree(g.Schema().Root()) {
		p.treeRank[t] = i
	}
	for _, l := range reg.Links() {
		_, fs, err := reg.Resolve(l.Hash())
		if err != nil {
			return nil, err
		}
		if _, ok := p.foreign[fs.Name()]; ok {
			continue
		}
		fg, err := graph.New(fs)
		if err != nil {
			return nil, fmt.Errorf("linked schema %s: %w", fs.Name(), err)
		}
		p.foreign[fs.Name()] = fg
	}
	return p, nil
}

// selected is a resolved output feature.
type selected struct {
	name     string
	local    schema.FeatureInfo // the feature itself, or the link source
	tokenPos bool

	link        *links.Link
	foreign     *schema.Schema
	foreignInfo schema.FeatureInfo
}

// state is the per-call planning state.
type state struct {
	p         *Planner
	s         *schema.Schema
	seq       token.Sequence
	occupied  []int
	anchor    int
	driver    int
	sel       *queryir.Select
	required  map[int]map[string]string // position -> table -> feature needing it
	joined    map[string]bool           // aliases already joined
	leftJoin  map[string]bool           // aliases joined with LEFT JOIN
	linkAlias map[string]string         // foreign alias -> link hash
}

// Plan plans one sequence. Positions are 1-based slot indices; nil slots
// keep their position but select NULL.
func (p *Planner) Plan(seq token.Sequence, features []string) (*Plan, error) {
	features = dedupe(features)
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	st := &state{
		p:         p,
		s:         p.graph.Schema(),
		seq:       seq,
		required:  make(map[int]map[string]string),
		joined:    make(map[string]bool),
		leftJoin:  make(map[string]bool),
		linkAlias: make(map[string]string),
	}
	for i, tok := range seq {
		if tok != nil {
			st.occupied = append(st.occupied, i+1)
		}
	}
	if len(st.occupied) == 0 {
		return nil, ErrEmptySequence
	}
	st.anchor = st.occupied[0]
	st.driver = pickDriver(seq, st.occupied)

	sels, err := st.resolve(features)
	if err != nil {
		return nil, err
	}

	var where []queryir.Predicate
	for _, pos := range st.occupied {
		c, err := p.builder.Build(seq[pos-1], pos)
		if err != nil {
			return nil, err
		}
		for _, t := range c.Tables {
			st.require(pos, t, queryFeatureOf(st.s, t))
		}
		where = append(where, c.Predicate())
	}

	root := st.s.Root()
	rootTable, _ := st.s.Table(root)
	st.sel = &queryir.Select{
		From:  queryir.TableRef{Table: rootTable.Physical, Alias: schema.Alias(root, st.driver)},
		Where: queryir.Conjoin(where...),
	}
	st.joined[st.sel.From.Alias] = true

	if err := st.selfJoins(); err != nil {
		return nil, err
	}
	for _, pos := range st.occupied {
		if err := st.featureJoins(pos); err != nil {
			return nil, err
		}
	}
	for _, f := range sels {
		if f.link == nil {
			continue
		}
		for _, pos := range st.positionsOf(f) {
			if err := st.linkJoins(f, pos); err != nil {
				return nil, err
			}
		}
	}

	cols := st.columns(sels)
	return &Plan{Select: st.sel, Columns: cols, Driver: st.driver, Slots: len(seq)}, nil
}

func dedupe(features []string) []string {
	seen := make(map[string]bool, len(features))
	out := make([]string, 0, len(features))
	for _, f := range features {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// pickDriver returns the most specific occupied position; ties go to the
// earliest.
func pickDriver(seq token.Sequence, occupied []int) int {
	best := occupied[0]
	bestScore := seq[best-1].Specificity()
	for _, pos := range occupied[1:] {
		if sc := seq[pos-1].Specificity(); sc > bestScore {
			best, bestScore = pos, sc
		}
	}
	return best
}

// queryFeatureOf names the query feature living in table, for error
// messages about condition tables.
func queryFeatureOf(s *schema.Schema, table string) string {
	q := s.Query()
	for _, f := range []string{q.Word, q.Lemma, q.POS, q.Transcript, q.Gloss} {
		if info, err := s.Lookup(f); err == nil && info.Table == table {
			return f
		}
	}
	return table
}

func (st *state) resolve(features []string) ([]selected, error) {
	out := make([]selected, 0, len(features))
	for _, name := range features {
		hash, rest := schema.SplitLink(name)
		if hash == "" {
			info, err := st.s.Lookup(name)
			if err != nil {
				return nil, err
			}
			f := selected{name: name, local: info, tokenPos: st.s.IsTokenPositionTable(info.Table)}
			for _, pos := range st.positionsOf(f) {
				st.require(pos, info.Table, name)
			}
			out = append(out, f)
			continue
		}

		if _, err := st.s.Split(name); err != nil {
			return nil, err
		}
		l, fs, err := st.p.links.Resolve(hash)
		if err != nil {
			return nil, err
		}
		if l.SourceSchema != st.s.Name() {
			return nil, &links.UnknownLinkError{Hash: hash, Profile: st.p.links.Profile(), Schema: st.s.Name()}
		}
		src, err := st.s.Lookup(l.SourceFeature)
		if err != nil {
			return nil, err
		}
		finfo, err := fs.Lookup(rest)
		if err != nil {
			return nil, err
		}
		f := selected{
			name:        name,
			local:       src,
			tokenPos:    st.s.IsTokenPositionTable(src.Table),
			link:        &l,
			foreign:     fs,
			foreignInfo: finfo,
		}
		for _, pos := range st.positionsOf(f) {
			st.require(pos, src.Table, name)
		}
		out = append(out, f)
	}
	return out, nil
}

// positionsOf returns the positions a feature is joined at: every
// occupied position for token features, the anchor otherwise.
func (st *state) positionsOf(f selected) []int {
	if f.tokenPos {
		return st.occupied
	}
	return []int{st.anchor}
}

func (st *state) require(pos int, table, feature string) {
	m, ok := st.required[pos]
	if !ok {
		m = make(map[string]string)
		st.required[pos] = m
	}
	if _, ok := m[table]; !ok {
		m[table] = feature
	}
}

func (st *state) selfJoins() error {
	root := st.s.Root()
	rootTable, _ := st.s.Table(root)
	id, err := st.s.IDFeature(root)
	if err != nil {
		return err
	}
	driverAlias := schema.Alias(root, st.driver)
	driverOffset := st.seq.Offset(st.driver - 1)

	for _, pos := range st.occupied {
		if pos == st.driver {
			continue
		}
		alias := schema.Alias(root, pos)
		st.sel.Joins = append(st.sel.Joins, queryir.Join{
			Kind:  queryir.InnerJoin,
			Table: queryir.TableRef{Table: rootTable.Physical, Alias: alias},
			On: queryir.Compare{
				Left: queryir.ColumnRef{Table: alias, Column: id.Column},
				Op:   queryir.OpEq,
				Right: queryir.Offset{
					Column: queryir.ColumnRef{Table: driverAlias, Column: id.Column},
					Delta:  st.seq.Offset(pos-1) - driverOffset,
				},
			},
		})
		st.joined[alias] = true
	}
	return nil
}

// featureJoins joins every table required at pos, walking root paths so
// that parents precede children. Tables are visited in table-tree order
// so the plan does not depend on feature order.
func (st *state) featureJoins(pos int) error {
	req := st.required[pos]
	tables := make([]string, 0, len(req))
	for t := range req {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool {
		ri, rj := st.p.treeRank[tables[i]], st.p.treeRank[tables[j]]
		if ri != rj {
			return ri < rj
		}
		return tables[i] < tables[j]
	})

	root := st.s.Root()
	for _, t := range tables {
		path, err := st.p.graph.PathBetween(root, t)
		if err != nil {
			return &UnreachableFeatureError{Feature: req[t], Err: err}
		}
		for k := 1; k < len(path); k++ {
			parent, child := path[k-1], path[k]
			if err := st.joinLocal(pos, parent, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (st *state) joinLocal(pos int, parent, child string) error {
	alias := schema.Alias(child, pos)
	if st.joined[alias] {
		return nil
	}
	parentAlias := schema.Alias(parent, pos)
	on, err := condition.EdgePredicate(st.s, parent, child, parentAlias, alias)
	if err != nil {
		return err
	}
	t, _ := st.s.Table(child)
	left := st.leftJoin[parentAlias] || t.Optional || t.Annotation != nil
	st.appendJoin(left, queryir.TableRef{Table: t.Physical, Alias: alias}, on)
	return nil
}

func (st *state) appendJoin(left bool, ref queryir.TableRef, on queryir.Predicate) {
	kind := queryir.InnerJoin
	if left {
		kind = queryir.LeftJoin
		st.leftJoin[ref.Alias] = true
	}
	st.sel.Joins = append(st.sel.Joins, queryir.Join{Kind: kind, Table: ref, On: on})
	st.joined[ref.Alias] = true
}

// linkJoins joins the link target at pos and the foreign path to the
// requested table.
func (st *state) linkJoins(f selected, pos int) error {
	l, fs := f.link, f.foreign
	hash := l.Hash()
	target, err := fs.Lookup(l.TargetFeature)
	if err != nil {
		return err
	}

	targetAlias := links.AliasFor(pos, *l, fs)
	if owner, ok := st.linkAlias[targetAlias]; ok && owner != hash {
		return fmt.Errorf("links %s and %s both join %s", owner, hash, targetAlias)
	}
	if !st.joined[targetAlias] {
		targetTable, _ := fs.Table(target.Table)
		on := queryir.Compare{
			Left:  queryir.Text{Expr: queryir.ColumnRef{Table: targetAlias, Column: target.Column}, CaseSensitive: l.CaseSensitive},
			Op:    queryir.OpEq,
			Right: queryir.ColumnRef{Table: schema.Alias(f.local.Table, pos), Column: f.local.Column},
		}
		st.appendJoin(l.Join != links.JoinInner,
			queryir.TableRef{Database: fs.DBName(), Table: targetTable.Physical, Alias: targetAlias}, on)
		st.linkAlias[targetAlias] = hash
	}

	fg := st.p.foreign[fs.Name()]
	path, err := fg.PathBetween(target.Table, f.foreignInfo.Table)
	if err != nil {
		return &UnreachableFeatureError{Feature: f.name, Err: err}
	}
	for k := 1; k < len(path); k++ {
		parent, child := path[k-1], path[k]
		alias := links.TableAlias(pos, fs, child)
		if st.joined[alias] {
			continue
		}
		parentAlias := links.TableAlias(pos, fs, parent)
		on, err := condition.EdgePredicate(fs, parent, child, parentAlias, alias)
		if err != nil {
			return err
		}
		t, _ := fs.Table(child)
		left := st.leftJoin[parentAlias] || t.Optional || t.Annotation != nil
		st.appendJoin(left, queryir.TableRef{Database: fs.DBName(), Table: t.Physical, Alias: alias}, on)
		st.linkAlias[alias] = hash
	}
	return nil
}

// columns lists output columns feature by feature. Token features get
// one column per slot, NULL for empty slots. Corpus-level features get a
// single column numbered 1.
func (st *state) columns(sels []selected) []ColumnInfo {
	var infos []ColumnInfo
	for _, f := range sels {
		positions := []int{1}
		if f.tokenPos {
			positions = make([]int, len(st.seq))
			for i := range st.seq {
				positions[i] = i + 1
			}
		}
		for _, pos := range positions {
			info := st.columnInfo(f, pos)
			var expr queryir.Expr = queryir.Null{}
			source := pos
			if !f.tokenPos {
				source = st.anchor
			}
			if !f.tokenPos || st.seq[pos-1] != nil {
				expr = st.columnRef(f, source)
			}
			st.sel.Columns = append(st.sel.Columns, queryir.Column{Expr: expr, Alias: info.Alias})
			infos = append(infos, info)
		}
	}
	return infos
}

func (st *state) columnRef(f selected, pos int) queryir.ColumnRef {
	if f.link != nil {
		return queryir.ColumnRef{Table: links.TableAlias(pos, f.foreign, f.foreignInfo.Table), Column: f.foreignInfo.Column}
	}
	return queryir.ColumnRef{Table: schema.Alias(f.local.Table, pos), Column: f.local.Column}
}

func (st *state) columnInfo(f selected, pos int) ColumnInfo {
	if f.link != nil {
		return ColumnInfo{
			Alias:         fmt.Sprintf("db_%s_coq_%s_%d", f.foreign.Name(), f.foreignInfo.Name, pos),
			Feature:       f.name,
			Label:         f.foreignInfo.Label,
			Position:      pos,
			TokenPosition: f.tokenPos,
			LinkHash:      f.link.Hash(),
			Schema:        f.foreign.Name(),
			OneToMany:     f.link.OneToMany,
		}
	}
	return ColumnInfo{
		Alias:         fmt.Sprintf("coq_%s_%d", f.name, pos),
		Feature:       f.name,
		Label:         f.local.Label,
		Position:      pos,
		TokenPosition: f.tokenPos,
	}
}
