package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/compiler"
	"github.com/roach88/corpusql/internal/resource"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/store"
)

// loadSchema compiles one testdata schema file.
func loadSchema(t *testing.T, file string) *schema.Schema {
	t.Helper()
	descs, err := compiler.CompileFile(filepath.Join(schemasDir, file))
	require.NoError(t, err)
	schemas, err := compiler.BuildSchemas(descs)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	return schemas[0]
}

func miniResource(t *testing.T) *resource.Resource {
	t.Helper()
	r, err := resource.New(loadSchema(t, "mini.cue"), nil)
	require.NoError(t, err)
	return r
}

// createMiniDB writes a mini corpus holding "walk home walk dog".
func createMiniDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mini.db")
	sc := loadSchema(t, "mini.cue")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.CreateTables(ctx, sc, ""))
	require.NoError(t, st.Insert(ctx, sc, "", "pos", []store.Record{
		{"pos_id": 1, "pos_tag": "v"},
		{"pos_id": 2, "pos_tag": "n"},
	}))
	require.NoError(t, st.Insert(ctx, sc, "", "word", []store.Record{
		{"word_id": 1, "word_text": "walk", "word_pos_id": 1},
		{"word_id": 2, "word_text": "home", "word_pos_id": 2},
		{"word_id": 3, "word_text": "dog", "word_pos_id": 2},
	}))
	require.NoError(t, st.Insert(ctx, sc, "", "corpus", []store.Record{
		{"corpus_id": 1, "corpus_word_id": 1},
		{"corpus_id": 2, "corpus_word_id": 2},
		{"corpus_id": 3, "corpus_word_id": 1},
		{"corpus_id": 4, "corpus_word_id": 3},
	}))
	return path
}

// createCelexDB writes a lexicon with one entry for "walk".
func createCelexDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "celex.db")
	sc := loadSchema(t, "celex.cue")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.CreateTables(ctx, sc, ""))
	require.NoError(t, st.Insert(ctx, sc, "", "word", []store.Record{
		{"word_id": 1, "word_label": "Walk", "word_frequency": 12},
	}))
	return path
}

type runResponse struct {
	Status string `json:"status"`
	Data   struct {
		QueryID string `json:"query_id"`
		Columns []struct {
			Alias string `json:"alias"`
		} `json:"columns"`
		Rows []map[string]any `json:"rows"`
	} `json:"data"`
}

func TestRunText(t *testing.T) {
	db := createMiniDB(t)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		"--schemas", schemasDir, "-r", "mini", "--db", db, "walk", "[n*]")
	require.NoError(t, err)

	assert.Contains(t, out, "coq_word_text_1")
	assert.Contains(t, out, "coq_word_text_2")
	assert.Regexp(t, `walk\s+│ home`, out)
	assert.Regexp(t, `walk\s+│ dog`, out)
	assert.Contains(t, out, "(2 row(s))")
}

func TestRunJSON(t *testing.T) {
	db := createMiniDB(t)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		"--schemas", schemasDir, "-r", "mini", "--db", db, "--limit", "1", "walk")
	require.NoError(t, err)

	var resp runResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.QueryID)
	require.Len(t, resp.Data.Columns, 1)
	assert.Equal(t, []map[string]any{{"coq_word_text_1": "walk"}}, resp.Data.Rows)
}

func TestRunNoMatches(t *testing.T) {
	db := createMiniDB(t)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		"--schemas", schemasDir, "-r", "mini", "--db", db, "-c", "WALK")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 row(s))")
}

func TestRunLinkedResource(t *testing.T) {
	db := createMiniDB(t)
	celex := createCelexDB(t)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		"--schemas", schemasDir, "-r", "mini", "--db", db,
		"--links", linksFile, "--attach", "celexdb="+celex,
		"-f", "word_text", "-f", celexLink+".word_frequency", "walk")
	require.NoError(t, err)

	var resp runResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Len(t, resp.Data.Columns, 2)
	freq := resp.Data.Columns[1].Alias
	require.Len(t, resp.Data.Rows, 2)
	for _, row := range resp.Data.Rows {
		assert.Equal(t, "walk", row["coq_word_text_1"])
		assert.Equal(t, float64(12), row[freq])
	}
}

func TestRunErrors(t *testing.T) {
	db := createMiniDB(t)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{
			name:     "missing db flag",
			args:     []string{"--schemas", schemasDir, "-r", "mini", "walk"},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "missing db file",
			args:     []string{"--schemas", schemasDir, "-r", "mini", "--db", filepath.Join(t.TempDir(), "nope.db"), "walk"},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "mysql is compile only",
			args:     []string{"--schemas", schemasDir, "-r", "mini", "--db", db, "--dialect", "mysql", "walk"},
			wantCode: ErrCodeDatabase,
		},
		{
			name:     "malformed attach",
			args:     []string{"--schemas", schemasDir, "-r", "mini", "--db", db, "--attach", "celexdb", "walk"},
			wantCode: ErrCodeGeneric,
		},
		{
			name:     "syntax error",
			args:     []string{"--schemas", schemasDir, "-r", "mini", "--db", db, "[walk"},
			wantCode: ErrCodeQuerySyntax,
		},
		{
			name:     "linked table not attached",
			args:     []string{"--schemas", schemasDir, "-r", "mini", "--db", db, "--links", linksFile, "-f", celexLink + ".word_frequency", "walk"},
			wantCode: ErrCodeDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code, resp.Error.Message)
		})
	}
}

func TestCutAttach(t *testing.T) {
	tests := []struct {
		in         string
		name, path string
		ok         bool
	}{
		{"celexdb=celex.db", "celexdb", "celex.db", true},
		{"a=b=c", "a", "b=c", true},
		{"celexdb", "", "", false},
		{"=celex.db", "", "celex.db", false},
		{"celexdb=", "celexdb", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, path, ok := cutAttach(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.name, name)
				assert.Equal(t, tt.path, path)
			}
		})
	}
}
