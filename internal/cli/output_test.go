package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSON(t *testing.T) {
	tests := []struct {
		name   string
		write  func(f *OutputFormatter) error
		status string
		code   string
	}{
		{
			name:   "success",
			write:  func(f *OutputFormatter) error { return f.Success(map[string]string{"sql": "SELECT 1 WHERE a < b"}) },
			status: "ok",
		},
		{
			name:   "error",
			write:  func(f *OutputFormatter) error { return f.Error(ErrCodeQuerySyntax, "unexpected {", nil) },
			status: "error",
			code:   ErrCodeQuerySyntax,
		},
		{
			name: "error with details",
			write: func(f *OutputFormatter) error {
				return f.Error(ErrCodeQueryFeature, "unknown feature", map[string]string{"feature": "word_nope"})
			},
			status: "error",
			code:   ErrCodeQueryFeature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			if tt.code == "" {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestOutputFormatter_NoHTMLEscaping(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, f.Success(map[string]string{"sql": "a < b AND c <> d"}))
	assert.Contains(t, buf.String(), "a < b AND c <> d")
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("1 resource(s) valid"))
	require.NoError(t, f.Error("E301", "unexpected {", map[string]string{"offset": "4"}))
	out := buf.String()
	assert.Contains(t, out, "1 resource(s) valid")
	assert.Contains(t, out, "Error [E301]: unexpected {")
	assert.NotContains(t, out, "Details:")

	buf.Reset()
	f.Verbose = true
	require.NoError(t, f.Error("E301", "unexpected {", map[string]string{"offset": "4"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			f.VerboseLog("Loading %s", "mini.cue")

			assert.Empty(t, out.String(), "stdout stays clean for JSON")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Loading mini.cue")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Table([]string{"coq_word_text_1", "freq"}, [][]any{
		{"walk", int64(12)},
		{"home", nil},
	}))
	out := buf.String()
	assert.Contains(t, out, "│ coq_word_text_1 │ freq │")
	assert.Regexp(t, `│ walk\s+│\s+12 +│`, out)
	assert.Regexp(t, `│ home\s+│ NULL │`, out)
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("run: %w", commandError(ErrCodeDatabase, "open", errors.New("locked"))), ExitCommandError},
		{"plain error", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}

	err := WrapExitError(ExitFailure, "loading", errors.New("locked"))
	assert.Equal(t, "loading: locked", err.Error())
	assert.ErrorContains(t, errors.Unwrap(err), "locked")
}
