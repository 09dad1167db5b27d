package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertBuilder_OnConflictDoNothing(t *testing.T) {
	t.Run("any conflict", func(t *testing.T) {
		ib := NewInsertBuilder()
		ib.InsertInto("resolution_records").Cols("id", "tenant_id").Values("a", "t1")
		ib.OnConflictDoNothing()

		query, args := ib.Build()
		assert.Equal(t, "INSERT INTO resolution_records (id, tenant_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", query)
		assert.Equal(t, []any{"a", "t1"}, args)
	})

	t.Run("named columns", func(t *testing.T) {
		ib := NewInsertBuilder()
		ib.InsertInto("resolution_records").Cols("id").Values("a").Values("b")
		ib.OnConflictDoNothing("tenant_id", "ingestion_id")

		query, args := ib.Build()
		assert.Equal(t, "INSERT INTO resolution_records (id) VALUES ($1), ($2) ON CONFLICT (tenant_id, ingestion_id) DO NOTHING", query)
		assert.Len(t, args, 2)
	})
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, User: "fern", Password: "secret", Name: "fern"}
	assert.Equal(t, "host=localhost port=5432 user=fern password=secret dbname=fern sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql", "000003_index.up.sql", "README.md"} {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	v, err := latestVersion(dir)
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = latestVersion(t.TempDir())
	assert.Error(t, err)
}
