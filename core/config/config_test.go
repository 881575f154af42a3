package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "/api/v1/submit-medical-record", cfg.SubmitPath)
	assert.Equal(t, "your-secure-token-here", cfg.Token)
	assert.Equal(t, 10, cfg.Count)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "prov123", cfg.WalletAddress)
	assert.False(t, cfg.AbortOnError)
}

func TestLoadEnvFileAndEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BULKSUBMIT_COUNT=4\nBULKSUBMIT_API_TOKEN=from-file\n"), 0600))
	t.Setenv("BULKSUBMIT_API_TOKEN", "from-env")
	t.Setenv("BULKSUBMIT_TIMEOUT", "5s")
	// godotenv.Load sets variables the test did not own
	t.Cleanup(func() { os.Unsetenv("BULKSUBMIT_COUNT") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Count)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BULKSUBMIT_COUNT", "ten")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{LogLevel: "info", EthosToken: "a", EthosKeyPath: "b"}
	require.Error(t, cfg.Validate())

	cfg = &Config{LogLevel: "loud"}
	require.Error(t, cfg.Validate())

	cfg = &Config{LogLevel: "info", Count: -1}
	require.Error(t, cfg.Validate())
}

func TestApplyFlagsOnlyOverridesChanged(t *testing.T) {
	t.Setenv("BULKSUBMIT_API_URL", "http://node:9000")
	cfg, err := Load()
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--count", "3", "--abort-on-error", "--env-file", "a.env,b.env"}))
	require.NoError(t, cfg.ApplyFlags(flags))

	assert.Equal(t, "http://node:9000", cfg.BaseURL)
	assert.Equal(t, 3, cfg.Count)
	assert.True(t, cfg.AbortOnError)
	assert.Equal(t, []string{"a.env", "b.env"}, EnvFiles(flags))
}
