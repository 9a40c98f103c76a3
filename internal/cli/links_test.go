package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/links"
)

func TestLinksText(t *testing.T) {
	out, err := execute(t, NewLinksCommand(&RootOptions{Format: "text"}),
		"--schemas", schemasDir, "--links", linksFile)
	require.NoError(t, err)

	assert.Contains(t, out, "HASH")
	assert.Contains(t, out, celexLink)
	assert.Contains(t, out, "mini.word_text")
	assert.Contains(t, out, "celex.word_label")
	assert.Contains(t, out, celexLink+".word_label")
}

func TestLinksJSON(t *testing.T) {
	out, err := execute(t, NewLinksCommand(&RootOptions{Format: "json"}),
		"--schemas", schemasDir, "--links", linksFile)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []LinkEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, celexLink, resp.Data[0].Hash)
	assert.Equal(t, links.JoinLeft, resp.Data[0].Link.Join)
	assert.Equal(t, "mini", resp.Data[0].Link.SourceSchema)
}

func TestLinksEmptyProfile(t *testing.T) {
	out, err := execute(t, NewLinksCommand(&RootOptions{Format: "text"}),
		"--schemas", schemasDir, "--links", linksFile, "--link-profile", "lab")
	require.NoError(t, err)
	assert.Contains(t, out, `no links in profile "lab"`)
}

func TestLinksErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing schemas", []string{"--links", linksFile}, ErrCodeNotFound},
		{"missing links", []string{"--schemas", schemasDir}, ErrCodeNotFound},
		{"links file not found", []string{"--schemas", schemasDir, "--links", "testdata/nope.yaml"}, ErrCodeLinks},
		{"invalid schemas", []string{"--schemas", "testdata/invalid", "--links", linksFile}, ErrCodeUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewLinksCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code, resp.Error.Message)
		})
	}
}
