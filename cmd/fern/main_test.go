package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
)

func TestReadBatch(t *testing.T) {
	body := `{"tenantId":"t1","entities":[{"tmpId":1,"type":"Company","name":"Acme"}]}`

	t.Run("stdin", func(t *testing.T) {
		req, err := readBatch("-", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, "t1", req.TenantID)
		require.Len(t, req.Entities, 1)
		assert.Equal(t, "Acme", req.Entities[0].Name)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "batch.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		req, err := readBatch(path, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), req.Entities[0].TmpID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readBatch(filepath.Join(t.TempDir(), "nope.json"), nil)
		assert.ErrorContains(t, err, "failed to open batch file")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := readBatch("-", strings.NewReader("{"))
		assert.ErrorContains(t, err, "failed to decode batch")
	})
}

func TestNewLogger(t *testing.T) {
	_, syncLogs, err := newLogger(&config.Config{AppName: "fern", LogLevel: "debug"})
	require.NoError(t, err)
	syncLogs()

	_, _, err = newLogger(&config.Config{LogLevel: "loud"})
	assert.ErrorContains(t, err, "invalid LOG_LEVEL")
}
