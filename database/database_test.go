package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- yorum; noktalı virgül içerir
CREATE TABLE a (x TEXT DEFAULT 'a;b');
INSERT INTO a VALUES ('it''s');
CREATE TABLE b (y INTEGER)`

	stmts := splitStatements(sql)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "'a;b'")
	assert.Contains(t, stmts[1], "'it''s'")
	assert.Equal(t, "CREATE TABLE b (y INTEGER)", stmts[2])
}

func TestNew_AppliesEmbeddedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := New(path, Migrations(), nil)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"groups", "group_members", "direct_messages", "group_messages", "group_reads"} {
		var n int
		err := db.Conn.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s must exist", table)
	}
}

func TestNew_MigrationsAreTracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	migrations := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE t (id TEXT);")},
		"002_b.sql": {Data: []byte("ALTER TABLE t ADD COLUMN name TEXT;")},
	}

	db, err := New(path, migrations, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// İkinci açılışta ALTER TABLE tekrar çalışmamalı
	db, err = New(path, migrations, nil)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestNew_RerunsInterruptedAlterMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	base := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE t (id TEXT);")},
	}

	db, err := New(path, base, nil)
	require.NoError(t, err)
	// 002'nin ilk statement'ı uygulanmış, dosya kaydedilmeden süreç kesilmiş
	_, err = db.Conn.Exec("ALTER TABLE t ADD COLUMN name TEXT")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	migrations := fstest.MapFS{
		"001_a.sql": base["001_a.sql"],
		"002_b.sql": {Data: []byte(`
ALTER TABLE t ADD COLUMN name TEXT;
ALTER TABLE t ADD COLUMN age INTEGER;`)},
	}
	db, err = New(path, migrations, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Conn.Exec("INSERT INTO t (id, name, age) VALUES ('1', 'a', 3)")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestNew_UnrecoverableMigrationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	migrations := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE t (id TEXT); CREATE TABLE t (id TEXT);")},
	}

	_, err := New(path, migrations, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_a.sql")
}
