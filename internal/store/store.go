package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// PostgreSQL driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied by the driver on every new connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Store owns the database handle and hands out repositories.
type Store struct {
	db      *sql.DB
	drv     *entsql.Driver
	dialect string
}

// Open connects to dsn and migrates the schema. PostgreSQL URLs
// (postgres:// or postgresql://) use pgx; everything else is treated as a
// SQLite path or file: URI.
func Open(dsn string) (*Store, error) {
	var (
		db      *sql.DB
		dialect string
		err     error
	)
	if IsPostgresDSN(dsn) {
		db, err = sql.Open("pgx", dsn)
		dialect = dialectPostgres
	} else {
		db, err = openSQLite(dsn)
		dialect = dialectSQLite
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, drv: entsql.OpenDB(dialect, db), dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

const (
	dialectSQLite   = dialect.SQLite
	dialectPostgres = dialect.Postgres
)

func openSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, err
	}
	// Every pooled connection to a private in-memory database would see its
	// own empty schema.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// sqliteDSN turns a path or file: URI into a URI carrying the pragmas.
func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// migrate creates or updates the tables declared in ent/schema.
func (s *Store) migrate(ctx context.Context) error {
	tables, err := buildTables()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Students returns the student/thread repository.
func (s *Store) Students() StudentRepo {
	return &studentRepo{db: s.db, dialect: s.dialect}
}

// Assistants returns the assistant bootstrap repository.
func (s *Store) Assistants() AssistantRepo {
	return &assistantRepo{db: s.db, dialect: s.dialect}
}

// Events returns the API call event repository.
func (s *Store) Events() EventRepo {
	return &eventRepo{db: s.db, dialect: s.dialect}
}

// DefaultDBPath resolves the database file path in priority order:
// 1. CALCTUTOR_DB environment variable
// 2. $XDG_DATA_HOME/calctutor/calctutor.db
// 3. ~/.local/share/calctutor/calctutor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("CALCTUTOR_DB"); p != "" {
		if IsPostgresDSN(p) {
			return p, nil
		}
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "calctutor", "calctutor.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
