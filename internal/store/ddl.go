package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/schema"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Attach makes the SQLite database file at path visible as database
// name, so that queries can reach linked resources as name.Table.
func (s *Store) Attach(ctx context.Context, path, name string) error {
	if s.dialect != querysql.SQLite {
		return fmt.Errorf("attach %s: only supported on sqlite", name)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("attach: database name %q is not an identifier", name)
	}
	if _, err := s.db.ExecContext(ctx, "ATTACH DATABASE ? AS "+name, path); err != nil {
		return fmt.Errorf("attach %s: %w", name, err)
	}
	return nil
}

// CreateTables creates the tables of sc in database, or in the main
// database when database is empty. Id columns are integers; the table id
// becomes the primary key. Other columns are left untyped. Existing
// tables are kept.
func (s *Store) CreateTables(ctx context.Context, sc *schema.Schema, database string) error {
	if s.dialect != querysql.SQLite {
		return fmt.Errorf("create tables: only supported on sqlite")
	}
	for _, name := range sc.Tables() {
		stmt, err := createTable(sc, name, database)
		if err != nil {
			return err
		}
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

func createTable(sc *schema.Schema, name, database string) (string, error) {
	t, _ := sc.Table(name)
	var pk string
	if id, err := sc.IDFeature(name); err == nil {
		pk = id.Column
	}

	seen := make(map[string]bool)
	var cols []string
	for _, feature := range t.Features() {
		info, err := sc.Lookup(feature)
		if err != nil {
			return "", err
		}
		if seen[info.Column] {
			continue
		}
		seen[info.Column] = true
		switch {
		case info.Column == pk:
			cols = append(cols, info.Column+" INTEGER PRIMARY KEY")
		case strings.HasSuffix(feature, "_id"):
			cols = append(cols, info.Column+" INTEGER")
		default:
			cols = append(cols, info.Column)
		}
	}
	if len(cols) == 0 {
		return "", nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		qualify(database, t.Physical), strings.Join(cols, ", ")), nil
}

func qualify(database, table string) string {
	if database == "" {
		return table
	}
	return database + "." + table
}
