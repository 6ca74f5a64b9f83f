// Package cmd provides CLI commands for the catsim application.
// This file contains tests for the YAML item bank format.
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adalundhe/catsim/core/itembank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Bank File Tests
// =============================================================================

func TestBankFile_RoundTrip(t *testing.T) {
	bank, err := itembank.Generate(8, 2, 3)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, saveBank(path, bank))

	loaded, err := loadBank(path)
	require.NoError(t, err)

	require.Equal(t, bank.Len(), loaded.Len())
	for i := 0; i < bank.Len(); i++ {
		assert.Equal(t, bank.Item(i), loaded.Item(i), "item %d", i)
		assert.Equal(t, bank.Cluster(i), loaded.Cluster(i), "item %d cluster", i)
	}
}

func TestLoadBank_ParsesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	content := `items:
  - a: 1.2
    b: -0.5
    c: 0.1
    cluster: 0
  - a: 0.9
    b: 1.5
    c: 0.2
    cluster: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	bank, err := loadBank(path)

	require.NoError(t, err)
	require.Equal(t, 2, bank.Len())
	assert.Equal(t, 1.2, bank.Item(0).Discrimination)
	assert.Equal(t, -0.5, bank.Item(0).Difficulty)
	assert.Equal(t, 0.1, bank.Item(0).Guessing)
	assert.Equal(t, 0, bank.Cluster(0))
	assert.Equal(t, 1, bank.Cluster(1))
}

func TestLoadBank_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadBank(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "read bank")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

		_, err := loadBank(path)
		assert.ErrorContains(t, err, "parse bank")
	})

	t.Run("invalid parameters", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		content := "items:\n  - a: -1.0\n    b: 0.0\n    c: 0.1\n    cluster: 0\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := loadBank(path)
		assert.ErrorContains(t, err, "discrimination")
	})

	t.Run("empty bank", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("items: []\n"), 0o644))

		_, err := loadBank(path)
		assert.ErrorContains(t, err, "empty item bank")
	})
}
