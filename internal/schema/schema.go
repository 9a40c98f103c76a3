package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const tableSuffix = "_table"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table is one resource table of a schema.
type Table struct {
	Name       string      // resource table name ("word")
	Physical   string      // physical table name ("Lexicon")
	Optional   bool        // joined with LEFT JOIN
	Annotation *Annotation // non-nil for time-range joined tables

	features []string
}

// Features returns the resource features of the table in declaration order.
func (t *Table) Features() []string {
	return append([]string(nil), t.features...)
}

// FeatureInfo is the resolved form of a resource feature.
type FeatureInfo struct {
	Name    string // "word_label"
	Table   string // "word"
	Feature string // "label"
	Column  string // "Word"
	Label   string // display label
}

// FeatureRef is the decomposition of a feature name. LinkHash is empty for
// local features.
type FeatureRef struct {
	LinkHash string
	Table    string
	Feature  string
}

// Name returns the resource feature name without the link hash.
func (r FeatureRef) Name() string {
	return r.Table + "_" + r.Feature
}

// Schema is a validated corpus schema. It is immutable after New.
type Schema struct {
	name    string
	dbName  string
	root    string
	lexicon string
	query   QueryFeatures

	tables     map[string]*Table
	tableOrder []string

	features     map[string]FeatureInfo
	featureOrder []string

	children    map[string][]string
	tokenTables map[string]bool
}

// New validates a description and builds the schema. All naming errors are
// reported here as *MalformedFeatureError so that later lookups cannot fail
// on a validated name.
func New(d Description) (*Schema, error) {
	s := &Schema{
		name:     d.Name,
		dbName:   d.DBName,
		root:     d.Root,
		lexicon:  d.Lexicon,
		query:    d.Query,
		tables:   make(map[string]*Table),
		features: make(map[string]FeatureInfo),
		children: make(map[string][]string),
	}
	if s.root == "" {
		s.root = DefaultRoot
	}
	if s.dbName == "" {
		s.dbName = s.name
	}

	if err := s.collectTables(d.Entries); err != nil {
		return nil, err
	}
	if err := s.collectFeatures(d.Entries, d.Labels); err != nil {
		return nil, err
	}
	if err := s.deriveChildren(); err != nil {
		return nil, err
	}
	if err := s.applyTableFlags(d.Optional, d.Annotations); err != nil {
		return nil, err
	}
	if err := s.checkRootAndLexicon(d.Lexicon != ""); err != nil {
		return nil, err
	}
	if err := s.checkQueryFeatures(); err != nil {
		return nil, err
	}
	s.tokenTables = s.collectTokenTables()

	return s, nil
}

// collectTables reads the <table>_table markers and adds special tables.
func (s *Schema) collectTables(entries []Entry) error {
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Name] {
			return malformed(e.Name, "declared more than once")
		}
		seen[e.Name] = true

		if !strings.HasSuffix(e.Name, tableSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name, tableSuffix)
		if name == "" || !identifierRe.MatchString(name) {
			return malformed(e.Name, "table marker without a valid table name")
		}
		if !identifierRe.MatchString(e.Value) {
			return malformed(e.Name, "physical table name %q is not an identifier", e.Value)
		}
		s.addTable(name, e.Value)
	}

	special := make([]string, 0, len(SpecialTables))
	for name := range SpecialTables {
		special = append(special, name)
	}
	sort.Strings(special)
	for _, name := range special {
		if _, ok := s.tables[name]; !ok {
			s.addTable(name, SpecialTables[name])
		}
	}
	return nil
}

func (s *Schema) addTable(name, physical string) {
	s.tables[name] = &Table{Name: name, Physical: physical}
	s.tableOrder = append(s.tableOrder, name)
}

// collectFeatures decomposes every non-marker entry against the known
// table prefixes. Exactly one table must match.
func (s *Schema) collectFeatures(entries []Entry, labels map[string]string) error {
	for _, e := range entries {
		if strings.HasSuffix(e.Name, tableSuffix) {
			if _, ok := s.tables[strings.TrimSuffix(e.Name, tableSuffix)]; ok {
				continue
			}
		}
		if strings.Contains(e.Name, ".") {
			return malformed(e.Name, "linked features cannot be declared in a schema")
		}

		table, feature, err := s.splitLocal(e.Name)
		if err != nil {
			return err
		}
		if !identifierRe.MatchString(e.Value) {
			return malformed(e.Name, "column %q is not an identifier", e.Value)
		}

		label := labels[e.Name]
		if label == "" {
			label = e.Name
		}
		s.features[e.Name] = FeatureInfo{
			Name:    e.Name,
			Table:   table,
			Feature: feature,
			Column:  e.Value,
			Label:   label,
		}
		s.featureOrder = append(s.featureOrder, e.Name)
		t := s.tables[table]
		t.features = append(t.features, e.Name)
	}

	for name := range labels {
		if _, ok := s.features[name]; !ok {
			return malformed(name, "label for an undeclared feature")
		}
	}
	return nil
}

// splitLocal matches name against the known table prefixes.
func (s *Schema) splitLocal(name string) (string, string, error) {
	var matches []string
	for _, table := range s.tableOrder {
		prefix := table + "_"
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			matches = append(matches, table)
		}
	}
	switch len(matches) {
	case 0:
		if !strings.Contains(name, "_") {
			return "", "", malformed(name, "missing table or feature component")
		}
		table, _, _ := strings.Cut(name, "_")
		return "", "", malformed(name, "unknown table %q", table)
	case 1:
		return matches[0], strings.TrimPrefix(name, matches[0]+"_"), nil
	default:
		return "", "", malformed(name, "ambiguous table prefix, matches %s", strings.Join(matches, ", "))
	}
}

// deriveChildren turns <parent>_<child>_id features into graph edges.
func (s *Schema) deriveChildren() error {
	for _, name := range s.featureOrder {
		info := s.features[name]
		child, ok := strings.CutSuffix(info.Feature, "_id")
		if !ok || child == info.Table {
			continue
		}
		if _, known := s.tables[child]; !known {
			continue
		}
		if _, ok := s.features[child+"_id"]; !ok {
			return malformed(name, "child table %q declares no %s_id", child, child)
		}
		s.children[info.Table] = append(s.children[info.Table], child)
	}
	return nil
}

func (s *Schema) applyTableFlags(optional []string, annotations []Annotation) error {
	for _, name := range optional {
		t, ok := s.tables[name]
		if !ok {
			return malformed(name+tableSuffix, "optional table is not declared")
		}
		t.Optional = true
	}

	for i := range annotations {
		a := annotations[i]
		t, ok := s.tables[a.Table]
		if !ok {
			return malformed(a.Table+tableSuffix, "annotation table is not declared")
		}
		if _, ok := s.tables[a.Parent]; !ok {
			return malformed(a.Parent+tableSuffix, "annotation parent is not declared")
		}
		if a.Parent == a.Table {
			return malformed(a.Table+tableSuffix, "annotation table cannot be its own parent")
		}
		for _, ref := range []struct{ feature, table string }{
			{a.Start, a.Table}, {a.End, a.Table}, {a.Origin, a.Table},
			{a.ParentStart, a.Parent}, {a.ParentEnd, a.Parent}, {a.ParentOrigin, a.Parent},
		} {
			info, ok := s.features[ref.feature]
			if !ok {
				return malformed(ref.feature, "annotation feature of %s is not declared", a.Table)
			}
			if info.Table != ref.table {
				return malformed(ref.feature, "annotation feature belongs to %s, want %s", info.Table, ref.table)
			}
		}
		t.Annotation = &a
		s.children[a.Parent] = append(s.children[a.Parent], a.Table)
	}
	return nil
}

func (s *Schema) checkRootAndLexicon(explicitLexicon bool) error {
	if _, ok := s.tables[s.root]; !ok {
		return malformed(s.root+tableSuffix, "root table is not declared")
	}
	if _, ok := s.features[s.root+"_id"]; !ok {
		return malformed(s.root+"_id", "root table needs an id feature")
	}

	if s.lexicon == "" {
		s.lexicon = DefaultLexicon
	}
	if _, ok := s.tables[s.lexicon]; !ok {
		if explicitLexicon {
			return malformed(s.lexicon+tableSuffix, "lexicon table is not declared")
		}
		s.lexicon = ""
	}
	return nil
}

func (s *Schema) checkQueryFeatures() error {
	for kind, name := range map[string]string{
		"word":       s.query.Word,
		"lemma":      s.query.Lemma,
		"pos":        s.query.POS,
		"transcript": s.query.Transcript,
		"gloss":      s.query.Gloss,
	} {
		if name == "" {
			continue
		}
		if _, ok := s.features[name]; !ok {
			return malformed(name, "%s query feature is not declared", kind)
		}
	}
	return nil
}

// collectTokenTables returns the tables whose rows vary per query token:
// the root, the lexicon subtree and every annotation subtree.
func (s *Schema) collectTokenTables() map[string]bool {
	out := make(map[string]bool)
	var walk func(string)
	walk = func(table string) {
		if out[table] {
			return
		}
		out[table] = true
		for _, child := range s.children[table] {
			walk(child)
		}
	}
	if s.lexicon != "" && s.lexicon != s.root {
		walk(s.lexicon)
	}
	for _, name := range s.tableOrder {
		if s.tables[name].Annotation != nil {
			walk(name)
		}
	}
	out[s.root] = true
	return out
}

// Name returns the resource name.
func (s *Schema) Name() string { return s.name }

// DBName returns the database name of the resource.
func (s *Schema) DBName() string { return s.dbName }

// Root returns the corpus root table.
func (s *Schema) Root() string { return s.root }

// Lexicon returns the lexicon table, or "" when the corpus has none.
func (s *Schema) Lexicon() string { return s.lexicon }

// Query returns the query feature designation.
func (s *Schema) Query() QueryFeatures { return s.query }

// Tables returns the resource table names in declaration order.
func (s *Schema) Tables() []string {
	return append([]string(nil), s.tableOrder...)
}

// Table returns a resource table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Features returns every resource feature in declaration order.
func (s *Schema) Features() []string {
	return append([]string(nil), s.featureOrder...)
}

// Lookup resolves a local resource feature.
func (s *Schema) Lookup(name string) (FeatureInfo, error) {
	info, ok := s.features[name]
	if !ok {
		if _, _, err := s.splitLocal(name); err != nil {
			return FeatureInfo{}, err
		}
		return FeatureInfo{}, malformed(name, "not declared in %s", s.name)
	}
	return info, nil
}

// Split decomposes a feature name into (link hash, table, feature).
// Local names must match a declared table prefix. Linked names belong to a
// foreign schema and are split at the first underscore; callers resolve
// them against the foreign schema.
func (s *Schema) Split(name string) (FeatureRef, error) {
	hash, rest := SplitLink(name)
	if hash != "" {
		table, feature, ok := strings.Cut(rest, "_")
		if !ok || table == "" || feature == "" {
			return FeatureRef{}, malformed(name, "missing table or feature component")
		}
		return FeatureRef{LinkHash: hash, Table: table, Feature: feature}, nil
	}
	table, feature, err := s.splitLocal(name)
	if err != nil {
		return FeatureRef{}, err
	}
	return FeatureRef{Table: table, Feature: feature}, nil
}

// SplitLink separates an external link hash from a feature name.
func SplitLink(name string) (hash, rest string) {
	if h, r, ok := strings.Cut(name, "."); ok {
		return h, r
	}
	return "", name
}

// ChildTables returns the tables t for which <table>_<t>_id is declared,
// followed by annotation tables whose parent is table.
func (s *Schema) ChildTables(table string) []string {
	return append([]string(nil), s.children[table]...)
}

// IDFeature returns the <table>_id feature.
func (s *Schema) IDFeature(table string) (FeatureInfo, error) {
	return s.Lookup(table + "_id")
}

// LinkFeature returns the <parent>_<child>_id feature joining parent to child.
func (s *Schema) LinkFeature(parent, child string) (FeatureInfo, error) {
	return s.Lookup(fmt.Sprintf("%s_%s_id", parent, child))
}

// IsTokenPositionTable reports whether rows of table vary per query token.
func (s *Schema) IsTokenPositionTable(table string) bool {
	return s.tokenTables[table]
}

// IsTokenPositionFeature reports whether the feature varies per query token
// position (corpus and lexicon features) as opposed to corpus-level
// metadata that appears once per match. Linked features are never local
// and report false; callers resolve them through the link source.
func (s *Schema) IsTokenPositionFeature(name string) bool {
	ref, err := s.Split(name)
	if err != nil || ref.LinkHash != "" {
		return false
	}
	return s.tokenTables[ref.Table]
}

// Alias returns the alias of a local table at a 1-based query token
// position, e.g. COQ_WORD_2.
func Alias(table string, position int) string {
	return fmt.Sprintf("COQ_%s_%d", strings.ToUpper(table), position)
}
