package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/corpusql/internal/planner"
	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/resource"
)

// Result holds the rows of one executed query. Rows[i][j] is the value of
// Columns[j].
type Result struct {
	QueryID string
	Columns []planner.ColumnInfo
	Rows    [][]any
}

// Value returns the value of feature at the 1-based token position in
// row. Corpus-level features are found at any position.
func (r *Result) Value(row int, feature string, position int) (any, bool) {
	if row < 0 || row >= len(r.Rows) {
		return nil, false
	}
	for j, c := range r.Columns {
		if c.Feature != feature {
			continue
		}
		if c.TokenPosition && c.Position != position {
			continue
		}
		return r.Rows[row][j], true
	}
	return nil, false
}

// Run executes q and maps every result column to its ColumnInfo. The
// database must return the columns in compiled order under their
// compiled aliases.
//
// Returns an empty (not nil) row slice when nothing matches.
func (s *Store) Run(ctx context.Context, q *resource.Compiled) (*Result, error) {
	if q.Dialect != s.dialect {
		return nil, fmt.Errorf("run %s: compiled for %s, store is %s", q.ID, q.Dialect, s.dialect)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", q.ID, err)
	}
	defer conn.Close()

	if s.dialect == querysql.SQLite && q.CaseSensitive {
		if _, err := conn.ExecContext(ctx, "PRAGMA case_sensitive_like = ON"); err != nil {
			return nil, fmt.Errorf("run %s: %w", q.ID, err)
		}
		defer func() {
			if _, err := conn.ExecContext(context.Background(), "PRAGMA case_sensitive_like = OFF"); err != nil {
				slog.Warn("failed to restore case_sensitive_like", "query_id", q.ID, "error", err)
			}
		}()
	}

	rows, err := conn.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", q.ID, err)
	}
	defer rows.Close()

	if err := checkColumns(rows, q.Columns); err != nil {
		return nil, fmt.Errorf("run %s: %w", q.ID, err)
	}

	res := &Result{QueryID: q.ID, Columns: q.Columns, Rows: [][]any{}}
	for rows.Next() {
		vals, err := scanRow(rows, len(q.Columns))
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", q.ID, err)
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run %s: iterate rows: %w", q.ID, err)
	}

	slog.Debug("query executed",
		"query_id", q.ID,
		"dialect", s.dialect.String(),
		"rows", len(res.Rows))
	return res, nil
}

func checkColumns(rows *sql.Rows, want []planner.ColumnInfo) error {
	got, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}
	if len(got) != len(want) {
		return fmt.Errorf("query returned %d columns, expected %d", len(got), len(want))
	}
	for i, name := range got {
		if name != want[i].Alias {
			return fmt.Errorf("column %d is %q, expected %q", i+1, name, want[i].Alias)
		}
	}
	return nil
}

func scanRow(rows *sql.Rows, n int) ([]any, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	for i, v := range vals {
		vals[i] = normalizeValue(v)
	}
	return vals, nil
}
