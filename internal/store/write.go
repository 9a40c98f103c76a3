package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/corpusql/internal/schema"
)

// Record is one table row keyed by resource feature name.
type Record map[string]any

// Insert writes records into table of sc, qualified with database when it
// is not empty. All records are written in one transaction. Features that
// share a physical column must agree on its value.
func (s *Store) Insert(ctx context.Context, sc *schema.Schema, database, table string, records []Record) error {
	t, ok := sc.Table(table)
	if !ok {
		return fmt.Errorf("insert: unknown table %q", table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	defer tx.Rollback()

	for i, rec := range records {
		cols, args, err := columnValues(sc, table, rec)
		if err != nil {
			return fmt.Errorf("insert %s record %d: %w", table, i, err)
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			qualify(database, t.Physical), strings.Join(cols, ", "), marks)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert %s record %d: %w", table, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// columnValues maps a record to physical columns in feature name order.
func columnValues(sc *schema.Schema, table string, rec Record) ([]string, []any, error) {
	features := make([]string, 0, len(rec))
	for f := range rec {
		features = append(features, f)
	}
	sort.Strings(features)

	values := make(map[string]any, len(rec))
	var cols []string
	for _, f := range features {
		info, err := sc.Lookup(f)
		if err != nil {
			return nil, nil, err
		}
		if info.Table != table {
			return nil, nil, fmt.Errorf("feature %s belongs to table %s", f, info.Table)
		}
		v := rec[f]
		if prev, ok := values[info.Column]; ok {
			if prev != v {
				return nil, nil, fmt.Errorf("features disagree on column %s", info.Column)
			}
			continue
		}
		values[info.Column] = v
		cols = append(cols, info.Column)
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("empty record")
	}

	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = values[c]
	}
	return cols, args, nil
}
