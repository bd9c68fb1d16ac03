package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "", cfg.Store.Name)
	assert.False(t, cfg.Store.Encrypted)
	assert.Equal(t, "data", cfg.Store.DataDir)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "json", cfg.Store.Format)
	assert.Equal(t, 5*time.Minute, cfg.Store.GCInterval)
	assert.Equal(t, filepath.Join("data", "master_key.json"), cfg.Security.KeyFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
store:
  name: settings
  encrypted: true
  data_dir: /var/lib/app
  backend: memory
  format: yaml
  sync_writes: true
  gc_interval: 30s
security:
  passphrase: letmein
logging:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "settings", cfg.Store.Name)
	assert.True(t, cfg.Store.Encrypted)
	assert.Equal(t, "/var/lib/app", cfg.Store.DataDir)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "yaml", cfg.Store.Format)
	assert.True(t, cfg.Store.SyncWrites)
	assert.Equal(t, 30*time.Second, cfg.Store.GCInterval)
	assert.Equal(t, "letmein", cfg.Security.Passphrase)
	assert.Equal(t, "/var/lib/app/master_key.json", cfg.Security.KeyFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "store:\n  encrypted: true\n")
	t.Setenv("PREFS_SECURITY_PASSPHRASE", "from-env")
	t.Setenv("PREFS_STORE_NAME", "env-store")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Security.Passphrase)
	assert.Equal(t, "env-store", cfg.Store.Name)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"bad format", func(c *Config) { c.Store.Format = "xml" }, "store.format"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"name with separator", func(c *Config) { c.Store.Name = "a/b" }, "store.name"},
		{"encrypted without passphrase", func(c *Config) { c.Store.Encrypted = true }, "security.passphrase"},
		{"encrypted with passphrase", func(c *Config) {
			c.Store.Encrypted = true
			c.Security.Passphrase = "p"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateKeepsExplicitKeyFile(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Security.KeyFile = "/etc/app/key.json"
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "/etc/app/key.json", cfg.Security.KeyFile)
}
