package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chtmpdir moves the test into an empty directory so no developer config.yaml
// leaks into the loaded configuration.
func chtmpdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestInitializeConfigDefaults(t *testing.T) {
	chtmpdir(t)

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "http://localhost:1234", cfg.LM.Endpoint)
	assert.Equal(t, "qwen3-vl-8b-instruct-mlx", cfg.LM.Model)
	assert.Equal(t, 350, cfg.LM.MaxTokens)
	assert.Equal(t, 300, cfg.LM.TimeoutSeconds)
	assert.Equal(t, "./weaviate_data", cfg.Store.DataDir)
	assert.Empty(t, cfg.Store.RemoteDisabled)
	assert.Empty(t, cfg.Store.URL)
	assert.Empty(t, cfg.Store.FallbackDir)
	assert.Equal(t, "stats.json", cfg.Ledger.StateFile)
	assert.Empty(t, cfg.Taxonomy.File)
	assert.Equal(t, ":5002", cfg.Server.Addr)
}

func TestInitializeConfigPrefixedEnv(t *testing.T) {
	chtmpdir(t)
	t.Setenv("BLOCEK_LOG_LEVEL", "debug")
	t.Setenv("BLOCEK_LOG_FORMAT", "json")
	t.Setenv("BLOCEK_SERVER_ADDR", ":9000")
	t.Setenv("BLOCEK_LEDGER_STATE_FILE", "other.json")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "other.json", cfg.Ledger.StateFile)
}

func TestInitializeConfigCompatibilityAliases(t *testing.T) {
	chtmpdir(t)
	t.Setenv("LM_ENDPOINT", "http://10.0.0.1:1234")
	t.Setenv("LM_MODEL", "some-model")
	t.Setenv("WEAVIATE_URL", "http://weaviate.local:8080")
	t.Setenv("WEAVIATE_REMOTE_DISABLED", "true")
	t.Setenv("WEAVIATE_HTTP_PORT", "9090")
	t.Setenv("WEAVIATE_API_KEY", "secret")
	t.Setenv("WEAVIATE_DATA_PATH", "/tmp/blocek-data")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.1:1234", cfg.LM.Endpoint)
	assert.Equal(t, "some-model", cfg.LM.Model)
	assert.Equal(t, "http://weaviate.local:8080", cfg.Store.URL)
	assert.Equal(t, "true", cfg.Store.RemoteDisabled)
	assert.Equal(t, "9090", cfg.Store.HTTPPort)
	assert.Equal(t, "secret", cfg.Store.APIKey)
	assert.Equal(t, "/tmp/blocek-data", cfg.Store.DataDir)
}

func TestInitializeConfigFromFile(t *testing.T) {
	dir := chtmpdir(t)

	content := `
log:
  level: warn
lm:
  model: file-model
store:
  data_dir: ./from_file
server:
  addr: ":7777"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "file-model", cfg.LM.Model)
	assert.Equal(t, "./from_file", cfg.Store.DataDir)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	// Untouched keys keep their defaults.
	assert.Equal(t, "http://localhost:1234", cfg.LM.Endpoint)
}

func TestInitializeConfigEnvWinsOverFile(t *testing.T) {
	dir := chtmpdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("log:\n  level: warn\n"), 0o644))
	t.Setenv("BLOCEK_LOG_LEVEL", "error")

	cfg, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestInitializeConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		fragment string
	}{
		{
			name:     "Bad log level",
			env:      map[string]string{"BLOCEK_LOG_LEVEL": "loud"},
			fragment: "invalid log level",
		},
		{
			name:     "Bad log format",
			env:      map[string]string{"BLOCEK_LOG_FORMAT": "xml"},
			fragment: "invalid log format",
		},
		{
			name:     "Zero timeout",
			env:      map[string]string{"BLOCEK_LM_TIMEOUT_SECONDS": "0"},
			fragment: "timeout_seconds",
		},
		{
			name:     "Zero max tokens",
			env:      map[string]string{"BLOCEK_LM_MAX_TOKENS": "0"},
			fragment: "max_tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chtmpdir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := InitializeConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.fragment)
		})
	}
}
