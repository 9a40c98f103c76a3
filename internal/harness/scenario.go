package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/corpusql/internal/querysql"
)

// Scenario defines a query conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists CUE files declaring the resources. Paths are relative
	// to the scenario file.
	Schemas []string `yaml:"schemas"`

	// Resource names the corpus the steps query.
	Resource string `yaml:"resource"`

	// Links is an optional link registry file; LinkProfile selects the
	// profile inside it ("default" when empty).
	Links       string `yaml:"links,omitempty"`
	LinkProfile string `yaml:"link_profile,omitempty"`

	// QueryID is the fixed id of every compiled query. Empty means
	// "test-query-default".
	QueryID string `yaml:"query_id,omitempty"`

	// Fixtures are inserted in order before the first step.
	Fixtures []Fixture `yaml:"fixtures,omitempty"`

	// Steps are compiled and run in order.
	Steps []Step `yaml:"steps"`
}

// Fixture is a batch of rows for one table.
type Fixture struct {
	// Resource defaults to the scenario resource. Other resources are
	// attached under their database name.
	Resource string           `yaml:"resource,omitempty"`
	Table    string           `yaml:"table"`
	Rows     []map[string]any `yaml:"rows"`
}

// Step is one query.
type Step struct {
	Query    []string      `yaml:"query"`
	Features []string      `yaml:"features,omitempty"`
	Options  StepOptions   `yaml:"options,omitempty"`
	Expect   *ExpectClause `yaml:"expect,omitempty"`
}

// StepOptions mirror resource.Options.
type StepOptions struct {
	Dialect        querysql.Dialect `yaml:"dialect,omitempty"`
	CaseSensitive  bool             `yaml:"case_sensitive,omitempty"`
	Regex          bool             `yaml:"regex,omitempty"`
	Limit          int              `yaml:"limit,omitempty"`
	InlineLiterals bool             `yaml:"inline_literals,omitempty"`
}

// ExpectClause lists what a step must produce. Unset fields are not
// checked.
type ExpectClause struct {
	// SQL is compared exactly.
	SQL    string `yaml:"sql,omitempty"`
	Params []any  `yaml:"params,omitempty"`

	// Columns are the result aliases in select order.
	Columns []string `yaml:"columns,omitempty"`

	Rows    [][]any `yaml:"rows,omitempty"`
	Ordered bool    `yaml:"ordered,omitempty"`

	// Count is the expected number of rows.
	Count *int `yaml:"count,omitempty"`

	// Error is a substring of the expected compile or run error.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Schema and link
// paths are resolved against the directory of path. Unknown fields and
// missing required fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Schemas {
		scenario.Schemas[i] = resolve(base, p)
	}
	scenario.Links = resolve(base, scenario.Links)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Schemas) == 0 {
		return fmt.Errorf("schemas list is required and must be non-empty")
	}
	if s.Resource == "" {
		return fmt.Errorf("resource is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, p := range s.Schemas {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", p)
		}
	}
	if s.Links != "" {
		if _, err := os.Stat(s.Links); os.IsNotExist(err) {
			return fmt.Errorf("links file not found: %s", s.Links)
		}
	}

	for i, f := range s.Fixtures {
		if f.Table == "" {
			return fmt.Errorf("fixtures[%d]: table is required", i)
		}
		if len(f.Rows) == 0 {
			return fmt.Errorf("fixtures[%d]: rows is required and must be non-empty", i)
		}
	}

	for i, step := range s.Steps {
		if len(step.Query) == 0 {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if step.Options.Limit < 0 {
			return fmt.Errorf("steps[%d]: limit must be non-negative", i)
		}
		if step.Expect == nil {
			continue
		}
		e := step.Expect
		if e.Error != "" && (e.SQL != "" || e.Rows != nil || e.Count != nil) {
			return fmt.Errorf("steps[%d].expect: error cannot be combined with sql or rows", i)
		}
		if step.Options.Dialect != querysql.SQLite && (e.Rows != nil || e.Count != nil) {
			return fmt.Errorf("steps[%d].expect: rows need the sqlite dialect", i)
		}
	}
	return nil
}
