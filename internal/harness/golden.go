package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden form of a scenario run. Rows are sorted
// unless the step asked for ordered results.
type TraceSnapshot struct {
	ScenarioName string      `json:"scenario_name"`
	QueryID      string      `json:"query_id"`
	Steps        []StepTrace `json:"steps"`
}

// Snapshot renders the trace of result as indented JSON without HTML
// escaping, one trailing newline.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	queryID := scenario.QueryID
	if queryID == "" {
		queryID = "test-query-default"
	}
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		QueryID:      queryID,
		Steps:        make([]StepTrace, len(result.Trace)),
	}
	for i, tr := range result.Trace {
		if tr.Rows != nil && (i >= len(scenario.Steps) || scenario.Steps[i].Expect == nil || !scenario.Steps[i].Expect.Ordered) {
			rows := make([][]any, len(tr.Rows))
			copy(rows, tr.Rows)
			sortRows(rows)
			tr.Rows = rows
		}
		snap.Steps[i] = tr
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. Failed expectations fail t.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Error(e)
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares an existing result against the golden file of
// the scenario without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
