package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/layerq/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory catalog.
const MemoryPath = ":memory:"

// pragma is one connection setting and the value SQLite reports back
// once it has been applied.
type pragma struct {
	name  string
	value string
	want  string
}

// pragmas are applied on every Open, in order.
//
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
var pragmas = []pragma{
	{name: "journal_mode", value: "WAL", want: "wal"},
	{name: "synchronous", value: "NORMAL", want: "1"},
	{name: "busy_timeout", value: "5000", want: "5000"},
	{name: "foreign_keys", value: "ON", want: "1"},
}

// migration upgrades a catalog created by an older schema.sql.
// Statements must be idempotent; schema.sql alone never records a version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in version order against catalogs whose user_version
// is lower than the migration's version.
var migrations = []migration{
	{
		version: 1,
		name:    "layer filter indexes",
		stmt: `
			CREATE INDEX IF NOT EXISTS idx_layers_map ON layers("Map");
			CREATE INDEX IF NOT EXISTS idx_layers_gamemode ON layers("Gamemode");
			CREATE INDEX IF NOT EXISTS idx_layers_faction_1 ON layers("Faction_1");
			CREATE INDEX IF NOT EXISTS idx_layers_faction_2 ON layers("Faction_2");
			CREATE INDEX IF NOT EXISTS idx_match_history_layer ON match_history(layer_id);
		`,
	},
}

// schemaVersion is the user_version a fully migrated catalog carries.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store is the SQLite layer catalog. It implements query.Catalog and
// query.HistorySource.
type Store struct {
	db       *sql.DB
	compiler *querysql.SQLCompiler
}

// Open creates or opens the catalog at path, applying pragmas, the
// schema and any pending migrations. MemoryPath opens a throwaway
// in-memory catalog.
//
// Open is idempotent: reopening an existing catalog leaves its rows alone.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect catalog %s: %w", path, err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// catalog only exists on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, path == MemoryPath); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, compiler: querysql.NewSQLCompiler(querysql.DefaultTable)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB, memory bool) error {
	for _, p := range pragmas {
		if memory && p.name == "journal_mode" {
			// In-memory databases only support the "memory" journal.
			continue
		}
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion())); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// pragmaValue reads the current value of a pragma.
func (s *Store) pragmaValue(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
