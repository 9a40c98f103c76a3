package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/corpusql/internal/querysql"
)

// DriverName is the database/sql driver Open uses: go-sqlite3 with a
// REGEXP function on every connection.
const DriverName = "sqlite3_corpusql"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

var patterns sync.Map // pattern -> *regexp.Regexp

// regexpMatch implements "value REGEXP pattern", which SQLite calls as
// regexp(pattern, value). NULL never matches.
func regexpMatch(pattern string, value any) (bool, error) {
	var s string
	switch v := value.(type) {
	case nil:
		return false, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	re, ok := patterns.Load(pattern)
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("regexp %q: %w", pattern, err)
		}
		re, _ = patterns.LoadOrStore(pattern, compiled)
	}
	return re.(*regexp.Regexp).MatchString(s), nil
}

// Store runs compiled queries against one corpus database.
type Store struct {
	db      *sql.DB
	dialect querysql.Dialect
}

// Open creates or opens a SQLite corpus database at path. ":memory:"
// opens a private in-memory database.
//
// The pool is limited to one connection: in-memory databases and
// attachments are per connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return &Store{db: db, dialect: querysql.SQLite}, nil
}

// New wraps a database opened by the caller. No pragmas are applied.
func New(db *sql.DB, dialect querysql.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the database.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// sqlitePragmas configure every database Open returns. LIKE starts out
// case-insensitive; Run switches it per query.
var sqlitePragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"busy_timeout", "5000"},
	{"case_sensitive_like", "OFF"},
}

func applyPragmas(db *sql.DB) error {
	for _, p := range sqlitePragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
