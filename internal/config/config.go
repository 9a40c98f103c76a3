// Package config reads corpusql profile files.
//
// A profile file is TOML:
//
//	default_profile = "demo"
//
//	[profiles.demo]
//	schemas = "./corpora"
//	resource = "demo"
//	links = "links.yaml"
//	link_profile = "default"
//	database = "demo.db"
//	dialect = "sqlite"
//	case_sensitive = false
//	regex = false
//	limit = 100
//
// Relative paths are resolved against the directory of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/resource"
)

// DefaultFile is the profile file looked up in the working directory.
const DefaultFile = "corpusql.toml"

// ErrProfileNotFound is returned by Profile for an undeclared name.
var ErrProfileNotFound = errors.New("profile not found")

// Config is a parsed profile file.
type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Profiles       map[string]Profile `toml:"profiles"`
}

// Profile holds the defaults for one corpus setup. Command line flags
// override every field.
type Profile struct {
	// Schemas is the directory of CUE resource files.
	Schemas string `toml:"schemas"`

	// Resource names the corpus resource inside Schemas.
	Resource string `toml:"resource"`

	// Links is the YAML link registry file; LinkProfile selects the
	// profile inside it.
	Links       string `toml:"links"`
	LinkProfile string `toml:"link_profile"`

	// Database is the SQLite database file queries run against.
	Database string `toml:"database"`

	Dialect       querysql.Dialect `toml:"dialect"`
	CaseSensitive bool             `toml:"case_sensitive"`
	Regex         bool             `toml:"regex"`
	Limit         int              `toml:"limit"`
}

// Load reads path. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path and fails if it does not exist.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
	}

	dir := filepath.Dir(path)
	for name, p := range cfg.Profiles {
		if p.Limit < 0 {
			return nil, fmt.Errorf("config %s: profile %s: limit must not be negative", path, name)
		}
		p.Schemas = resolve(dir, p.Schemas)
		p.Links = resolve(dir, p.Links)
		p.Database = resolve(dir, p.Database)
		cfg.Profiles[name] = p
	}
	return &cfg, nil
}

func resolve(dir, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Profile returns the named profile, or the default profile for an empty
// name. An empty name without a default yields the zero profile.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return Profile{}, nil
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// ProfileNames lists the declared profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options converts the profile into compile options. The part-of-speech
// predicate is left for the caller to attach.
func (p Profile) Options() resource.Options {
	return resource.Options{
		Dialect:       p.Dialect,
		CaseSensitive: p.CaseSensitive,
		RegexMode:     p.Regex,
		Limit:         p.Limit,
	}
}
