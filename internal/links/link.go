package links

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/corpusql/internal/schema"
)

// DomainLink is the hash domain for link identity. The version suffix
// leaves room for a future change of the canonical form.
const DomainLink = "corpusql/link/v1"

// JoinKind is the SQL join used for a link.
type JoinKind string

const (
	JoinLeft  JoinKind = "LEFT"
	JoinInner JoinKind = "INNER"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Link joins SourceFeature of SourceSchema to TargetFeature of TargetSchema.
type Link struct {
	SourceSchema  string   `yaml:"source_schema" json:"source_schema"`
	SourceFeature string   `yaml:"source_feature" json:"source_feature"`
	TargetSchema  string   `yaml:"target_schema" json:"target_schema"`
	TargetFeature string   `yaml:"target_feature" json:"target_feature"`
	Join          JoinKind `yaml:"join" json:"join"`
	CaseSensitive bool     `yaml:"case_sensitive" json:"case_sensitive"`
	OneToMany     bool     `yaml:"one_to_many" json:"one_to_many"`
}

// Canonical returns the canonical string form that the hash is computed
// over. Strings are NFC normalised; the join kind is upper-cased.
func (l Link) Canonical() string {
	fields := []string{
		norm.NFC.String(l.SourceSchema),
		norm.NFC.String(l.SourceFeature),
		norm.NFC.String(l.TargetSchema),
		norm.NFC.String(l.TargetFeature),
		strings.ToUpper(string(l.Join)),
		fmt.Sprintf("%t", l.CaseSensitive),
		fmt.Sprintf("%t", l.OneToMany),
	}
	return strings.Join(fields, "\x1f")
}

// Hash computes the content-addressed identity of the link.
// Format: hex(SHA256(domain + 0x00 + canonical))
func (l Link) Hash() string {
	h := sha256.New()
	h.Write([]byte(DomainLink))
	h.Write([]byte{0x00})
	h.Write([]byte(l.Canonical()))
	return hex.EncodeToString(h.Sum(nil))
}

// Feature returns the selectable name of a foreign resource feature
// reached through this link.
func (l Link) Feature(foreignFeature string) string {
	return l.Hash() + "." + foreignFeature
}

// Validate checks the link fields that do not depend on other schemas.
func (l Link) Validate() error {
	switch {
	case l.SourceSchema == "":
		return fmt.Errorf("link: source_schema is required")
	case l.SourceFeature == "":
		return fmt.Errorf("link: source_feature is required")
	case l.TargetSchema == "":
		return fmt.Errorf("link: target_schema is required")
	case l.TargetFeature == "":
		return fmt.Errorf("link: target_feature is required")
	}
	switch JoinKind(strings.ToUpper(string(l.Join))) {
	case JoinLeft, JoinInner:
	default:
		return fmt.Errorf("link: join must be LEFT or INNER, got %q", l.Join)
	}
	return nil
}

// AliasFor returns the table alias used for the link's target table at the
// given 1-based query token position. Equal inputs always give the same
// alias so that join clauses and column references agree.
func AliasFor(position int, l Link, foreign *schema.Schema) string {
	table := l.TargetFeature
	if info, err := foreign.Lookup(l.TargetFeature); err == nil {
		table = info.Table
	}
	return TableAlias(position, foreign, table)
}

// TableAlias returns the alias for any table of a foreign schema.
func TableAlias(position int, foreign *schema.Schema, table string) string {
	return strings.ToUpper(fmt.Sprintf("%s_%s_%d", foreign.DBName(), table, position))
}
