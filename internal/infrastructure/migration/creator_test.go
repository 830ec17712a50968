package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add invoice tables", "add_invoice_tables"},
		{"Add-Invoice-Tables", "add_invoice_tables"},
		{"ADD_INVOICE_TABLES", "add_invoice_tables"},
		{"add__expense__index", "add_expense_index"},
		{"Payments v2", "payments_v2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add invoice tables", "Invoice and invoice line tables")
	require.NoError(t, err)
	require.NotNil(t, mf)

	// YYYYMMDDHHMMSS
	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add invoice tables")
	assert.Contains(t, string(upContent), "Invoice and invoice line tables")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("empty directory", func(t *testing.T) {
		got, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing directory", func(t *testing.T) {
		got, err := ListMigrations(filepath.Join(tmpDir, "nope"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("lists up migrations once", func(t *testing.T) {
		for _, name := range []string{
			"000001_init.up.sql",
			"000001_init.down.sql",
			"000002_add_receipts.up.sql",
			"000002_add_receipts.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("-- x"), 0644))
		}

		got, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init", "000002_add_receipts"}, got)
	})
}
