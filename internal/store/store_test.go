package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "catalog file should exist")
}

func TestOpen_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open #%d", i)
		if i == 0 {
			_, err = s.LoadLayers(context.Background(), []layer.Layer{mustLayer(t, "Narva-RAAS-V1:RGF:USA")})
			require.NoError(t, err)
		}
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(context.Background(), queryir.True)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []string{"layers", "match_history"}, tableNames(t, s.db))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/catalog.db")
	assert.Error(t, err)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LoadLayers(context.Background(), []layer.Layer{mustLayer(t, "Gorodok-AAS-V1:RGF:USA")})
	require.NoError(t, err)

	n, err := s.Count(context.Background(), queryir.True)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "rows survive across calls on the single connection")

	mode, err := s.pragmaValue("journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	for _, p := range pragmas {
		t.Run(p.name, func(t *testing.T) {
			got, err := s.pragmaValue(p.name)
			require.NoError(t, err)
			assert.Equal(t, p.want, got)
		})
	}
}

func TestSchema_LayersTableMatchesRegistry(t *testing.T) {
	s := createTestStore(t)

	assert.ElementsMatch(t, layer.StoredColumns, tableColumns(t, s.db, "layers"))
}

func TestSchema_MatchHistoryTable(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t,
		[]string{"seq", "item_id", "layer_id", "choices"},
		tableColumns(t, s.db, "match_history"))
}

func TestSchema_BooleanCheck(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO layers ("id", "Scored") VALUES ('x', 2)`)
	assert.Error(t, err, "Scored is constrained to 0/1")
}

func TestMigration_FreshCatalogIsCurrent(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, schemaVersion(), userVersion(t, s.db))
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	// A catalog created from schema.sql before any migration ran.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.Equal(t, 0, userVersion(t, db))
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, schemaVersion(), userVersion(t, s.db))
	assert.Subset(t, indexNames(t, s.db, "layers"),
		[]string{"idx_layers_map", "idx_layers_gamemode", "idx_layers_faction_1", "idx_layers_faction_2"})
	assert.Contains(t, indexNames(t, s.db, "match_history"), "idx_match_history_layer")
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	return version
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	return queryStrings(t, db,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryStrings(t, db, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
}

func indexNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryStrings(t, db,
		"SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
}

func queryStrings(t *testing.T, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}
