package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8545", cfg.ListenAddress)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, "USDC", cfg.ContactToken)
	require.FileExists(t, path)

	// The written file round-trips.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("ListenAddress = \":9000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddress)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, defaultJWTSecretEnv, cfg.JWTSecretEnv)
}

func TestJWTSecretFromEnvironment(t *testing.T) {
	cfg := &Config{JWTSecretEnv: "TALENTPASS_TEST_SECRET"}

	_, err := cfg.JWTSecret()
	require.Error(t, err)

	t.Setenv("TALENTPASS_TEST_SECRET", "hunter2")
	secret, err := cfg.JWTSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("hunter2"), secret)
}
