package schema

// Defaults applied by New when a Description leaves them empty.
const (
	DefaultRoot    = "corpus"
	DefaultLexicon = "word"
)

// SpecialTables are resource tables that every corpus understands, whether
// or not the description declares a marker for them. The value is the
// physical table name used when no marker is declared.
var SpecialTables = map[string]string{
	"tag": "Tags",
}

// Entry is one declared resource feature and its value. For table markers
// (name ending in "_table") the value is the physical table name, otherwise
// it is the physical column name.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// QueryFeatures designates which resource feature each specifier kind of a
// query token is matched against. Empty fields are not queryable.
type QueryFeatures struct {
	Word       string `json:"word,omitempty" yaml:"word,omitempty"`
	Lemma      string `json:"lemma,omitempty" yaml:"lemma,omitempty"`
	POS        string `json:"pos,omitempty" yaml:"pos,omitempty"`
	Transcript string `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Gloss      string `json:"gloss,omitempty" yaml:"gloss,omitempty"`
}

// Annotation declares a table that is joined to its parent by time-range
// overlap instead of id equality. All names are resource features.
type Annotation struct {
	Table        string `json:"table" yaml:"table"`
	Parent       string `json:"parent" yaml:"parent"`
	Start        string `json:"start" yaml:"start"`
	End          string `json:"end" yaml:"end"`
	Origin       string `json:"origin" yaml:"origin"`
	ParentStart  string `json:"parent_start" yaml:"parent_start"`
	ParentEnd    string `json:"parent_end" yaml:"parent_end"`
	ParentOrigin string `json:"parent_origin" yaml:"parent_origin"`
}

// Description is the declared, unvalidated form of a corpus schema, usually
// produced by the CUE loader in package compiler.
type Description struct {
	// Name is the resource name ("bnc", "celex"). It appears in the column
	// aliases of externally linked features.
	Name string `json:"name"`

	// DBName is the database the tables live in. External joins qualify
	// foreign tables with it.
	DBName string `json:"db_name"`

	Root    string `json:"root,omitempty"`
	Lexicon string `json:"lexicon,omitempty"`

	// Entries keeps declaration order; path search depends on it.
	Entries []Entry `json:"entries"`

	Labels      map[string]string `json:"labels,omitempty"`
	Query       QueryFeatures     `json:"query"`
	Optional    []string          `json:"optional,omitempty"`
	Annotations []Annotation      `json:"annotations,omitempty"`
}
