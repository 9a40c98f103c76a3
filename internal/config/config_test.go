package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/querysql"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	p, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, Profile{}, p)

	_, err = LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadProfiles(t *testing.T) {
	path := writeConfig(t, `
default_profile = "demo"

[profiles.demo]
schemas = "corpora"
resource = "demo"
links = "links.yaml"
link_profile = "default"
database = "/data/demo.db"
dialect = "sqlite"
limit = 100

[profiles.bnc]
resource = "bnc"
database = ":memory:"
dialect = "MySQL"
case_sensitive = true
regex = true
`)
	dir := filepath.Dir(path)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bnc", "demo"}, cfg.ProfileNames())

	demo, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, Profile{
		Schemas:     filepath.Join(dir, "corpora"),
		Resource:    "demo",
		Links:       filepath.Join(dir, "links.yaml"),
		LinkProfile: "default",
		Database:    "/data/demo.db",
		Dialect:     querysql.SQLite,
		Limit:       100,
	}, demo)

	bnc, err := cfg.Profile("bnc")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", bnc.Database)
	opts := bnc.Options()
	assert.Equal(t, querysql.MySQL, opts.Dialect)
	assert.True(t, opts.CaseSensitive)
	assert.True(t, opts.RegexMode)
	assert.Zero(t, opts.Limit)
	assert.Nil(t, opts.IsPartOfSpeech)

	_, err = cfg.Profile("celex")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad dialect", "[profiles.a]\ndialect = \"oracle\"\n", "oracle"},
		{"unknown key", "[profiles.a]\ndatabse = \"x.db\"\n", "unknown key"},
		{"negative limit", "[profiles.a]\nlimit = -1\n", "limit"},
		{"not toml", "profiles = [", "failed to parse"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
