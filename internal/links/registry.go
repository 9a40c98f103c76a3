package links

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/corpusql/internal/schema"
)

// Registry holds the links of one connection profile together with the
// foreign schemas they point to. It is read-only after NewRegistry.
type Registry struct {
	profile string
	links   map[string]Link
	order   []string
	schemas map[string]*schema.Schema
}

// NewRegistry validates links against the given schemas and builds the
// registry. Every target schema must be among schemas and every target
// feature must exist in it.
func NewRegistry(profile string, schemas []*schema.Schema, links []Link) (*Registry, error) {
	r := &Registry{
		profile: profile,
		links:   make(map[string]Link),
		schemas: make(map[string]*schema.Schema),
	}
	for _, s := range schemas {
		r.schemas[s.Name()] = s
	}

	for i, l := range links {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q link %d: %w", profile, i, err)
		}
		l.Join = JoinKind(strings.ToUpper(string(l.Join)))

		foreign, ok := r.schemas[l.TargetSchema]
		if !ok {
			return nil, fmt.Errorf("profile %q link %d: unknown target schema %q", profile, i, l.TargetSchema)
		}
		if !identifierRe.MatchString(foreign.DBName()) {
			return nil, fmt.Errorf("profile %q link %d: database name %q of %s is not an identifier",
				profile, i, foreign.DBName(), foreign.Name())
		}
		if _, err := foreign.Lookup(l.TargetFeature); err != nil {
			return nil, fmt.Errorf("profile %q link %d: %w", profile, i, err)
		}

		hash := l.Hash()
		if _, dup := r.links[hash]; dup {
			continue
		}
		r.links[hash] = l
		r.order = append(r.order, hash)
	}
	return r, nil
}

// Profile returns the connection profile the registry belongs to.
func (r *Registry) Profile() string {
	return r.profile
}

// Resolve returns the link registered under hash and its foreign schema.
func (r *Registry) Resolve(hash string) (Link, *schema.Schema, error) {
	if r == nil {
		return Link{}, nil, &UnknownLinkError{Hash: hash}
	}
	l, ok := r.links[hash]
	if !ok {
		return Link{}, nil, &UnknownLinkError{Hash: hash, Profile: r.profile}
	}
	return l, r.schemas[l.TargetSchema], nil
}

// Links returns the registered links in load order.
func (r *Registry) Links() []Link {
	if r == nil {
		return nil
	}
	out := make([]Link, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.links[h])
	}
	return out
}

// File is the persisted form of link configuration.
//
//	profiles:
//	  default:
//	    - source_schema: bnc
//	      source_feature: word_label
//	      target_schema: celex
//	      target_feature: word_label
//	      join: LEFT
type File struct {
	Profiles map[string][]Link `yaml:"profiles"`
}

// Parse decodes link configuration and builds the registry for profile.
// A file without that profile yields an empty registry.
func Parse(data []byte, profile string, schemas []*schema.Schema) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse links: %w", err)
	}
	return NewRegistry(profile, schemas, f.Profiles[profile])
}

// LoadFile reads link configuration from path.
func LoadFile(path, profile string, schemas []*schema.Schema) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}
	return Parse(data, profile, schemas)
}
