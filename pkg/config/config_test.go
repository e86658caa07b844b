package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()
	require.Equal(t, "./data/mnemograph", cfg.DataDir)
	require.Equal(t, "default", cfg.Namespace)
	require.True(t, cfg.SyncWrites)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvRespectsOverrides(t *testing.T) {
	t.Setenv("MNEMOGRAPH_DATA_DIR", "/tmp/custom")
	t.Setenv("MNEMOGRAPH_EMBEDDING_DIMENSION", "768")
	t.Setenv("MNEMOGRAPH_SYNC_WRITES", "false")

	cfg := LoadFromEnv()
	require.Equal(t, "/tmp/custom", cfg.DataDir)
	require.Equal(t, 768, cfg.EmbeddingDimension)
	require.False(t, cfg.SyncWrites)
}

func TestValidateRejectsMissingDataDir(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateAllowsInMemoryWithoutDataDir(t *testing.T) {
	cfg := &Config{InMemory: true}
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\nnamespace: filens\n"), 0o644))

	t.Setenv("MNEMOGRAPH_NAMESPACE", "env-wins")
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/from/file", cfg.DataDir)
	require.Equal(t, "env-wins", cfg.Namespace)
}
