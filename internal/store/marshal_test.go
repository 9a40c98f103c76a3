package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/planner"
)

func TestResult_MarshalJSON(t *testing.T) {
	res := &Result{
		QueryID: "q-1",
		Columns: []planner.ColumnInfo{
			{Alias: "coq_word_label_2", Feature: "word_label", Position: 2, TokenPosition: true},
			{Alias: "coq_file_name_1", Feature: "file_name", Position: 1},
		},
		Rows: [][]any{{"<b>&", "a.txt"}, {nil, int64(3)}},
	}

	data, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Equal(t,
		`{"query_id":"q-1","columns":[`+
			`{"alias":"coq_word_label_2","feature":"word_label","label":"","position":2,"token_position":true},`+
			`{"alias":"coq_file_name_1","feature":"file_name","label":"","position":1,"token_position":false}],`+
			`"rows":[{"coq_word_label_2":"<b>&","coq_file_name_1":"a.txt"},{"coq_word_label_2":null,"coq_file_name_1":3}]}`,
		string(data))
}

func TestResult_MarshalJSON_Empty(t *testing.T) {
	data, err := json.Marshal(&Result{QueryID: "q", Columns: []planner.ColumnInfo{}, Rows: [][]any{}})
	require.NoError(t, err)
	assert.Equal(t, `{"query_id":"q","columns":[],"rows":[]}`, string(data))
}

func TestResult_MarshalJSON_RaggedRow(t *testing.T) {
	_, err := json.Marshal(&Result{Columns: []planner.ColumnInfo{{Alias: "a"}}, Rows: [][]any{{1, 2}}})
	assert.Error(t, err)
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "walk", normalizeValue([]byte("walk")))
	assert.Equal(t, int64(1), normalizeValue(int64(1)))
	assert.Nil(t, normalizeValue(nil))
}
