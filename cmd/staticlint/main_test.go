package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lint.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Staticcheck": ["SA1000", "SA4006"]}`), 0o600))
	t.Setenv(ConfigEnv, path)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"SA1000", "SA4006"}, cfg.Staticcheck)
}

func TestLoadConfigExplicitFileMustExist(t *testing.T) {
	t.Setenv(ConfigEnv, filepath.Join(t.TempDir(), "missing.json"))

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lint.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Staticcheck": `), 0o600))
	t.Setenv(ConfigEnv, path)

	_, err := loadConfig()
	assert.ErrorContains(t, err, "decoding")
}
