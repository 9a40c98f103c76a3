package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/corpusql/internal/queryir"
	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/token"
)

// PartOfSpeech returns a predicate that reports whether a bracketed
// query specifier names a part-of-speech tag of sc. Each call runs one
// LIKE probe against the tag column; * and ? in the candidate are
// wildcards. Lookup failures are logged and count as "not a tag".
func (s *Store) PartOfSpeech(ctx context.Context, sc *schema.Schema) (token.PartOfSpeechFunc, error) {
	feature := sc.Query().POS
	if feature == "" {
		return nil, fmt.Errorf("schema %s has no part-of-speech feature", sc.Name())
	}
	info, err := sc.Lookup(feature)
	if err != nil {
		return nil, err
	}
	t, _ := sc.Table(info.Table)

	const alias = "COQ_PROBE"
	col := queryir.ColumnRef{Table: alias, Column: info.Column}
	probe := func(pattern string) (string, []any, error) {
		return querysql.Renderer{Dialect: s.dialect}.Render(&queryir.Select{
			Columns: []queryir.Column{{Expr: col}},
			From:    queryir.TableRef{Table: t.Physical, Alias: alias},
			Where: queryir.Like{
				Left:    queryir.Text{Expr: col},
				Pattern: queryir.Literal{Value: pattern},
			},
			Limit: 1,
		})
	}

	return func(candidate string) bool {
		query, args, err := probe(likePattern(candidate))
		if err != nil {
			slog.Warn("part-of-speech probe failed", "candidate", candidate, "error", err)
			return false
		}
		var tag any
		err = s.db.QueryRowContext(ctx, query, args...).Scan(&tag)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return false
		case err != nil:
			slog.Warn("part-of-speech probe failed", "candidate", candidate, "error", err)
			return false
		}
		return true
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`, `?`, `_`)

// likePattern turns query wildcards into LIKE wildcards, escaping the
// LIKE metacharacters of the candidate.
func likePattern(candidate string) string {
	return likeEscaper.Replace(candidate)
}
