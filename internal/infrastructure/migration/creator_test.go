package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	t.Run("creates up and down files", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "add invoices table")

		require.NoError(t, err)
		assert.FileExists(t, mf.UpPath)
		assert.FileExists(t, mf.DownPath)
		assert.True(t, strings.HasSuffix(mf.UpPath, "_add_invoices_table.up.sql"))
		assert.True(t, strings.HasSuffix(mf.DownPath, "_add_invoices_table.down.sql"))
	})

	t.Run("creates nested migrations directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db", "migrations")

		_, err := CreateMigration(dir, "init")

		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"add invoices table", "add_invoices_table"},
		{"Add--Invoices!!", "add_invoices"},
		{"  spaced  ", "spaced"},
		{"v2_schema", "v2_schema"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}
