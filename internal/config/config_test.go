package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "cesta.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.Gemini.Timeout)
	assert.Empty(t, cfg.Gemini.APIKey)
	assert.Equal(t, 30, cfg.Backup.RetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval)
	assert.Equal(t, 10, cfg.InsightsPerMinute)
	assert.Equal(t, 60, cfg.ItemsPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `port: "9090"
db_path: /var/lib/cesta/cesta.db
log:
  level: debug
  format: json
gemini:
  api_key: from-file
  model: gemini-2.0-flash
  timeout: 5s
s3:
  bucket: backups
  access_key: ak
  secret_key: sk
backup:
  passphrase: hunter2
  retention_days: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/var/lib/cesta/cesta.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "from-file", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 5*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "backups", cfg.Backup.S3.Bucket)
	assert.Equal(t, "hunter2", cfg.Backup.Passphrase)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CESTA_PORT", "7070")
	t.Setenv("CESTA_S3_BUCKET", "env-bucket")
	t.Setenv("CESTA_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "env-bucket", cfg.Backup.S3.Bucket)
	assert.Equal(t, "fallback-key", cfg.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := Load(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero retention", func(c *Config) { c.Backup.RetentionDays = 0 }},
		{"negative interval", func(c *Config) { c.Backup.Interval = -time.Second }},
		{"negative rate", func(c *Config) { c.InsightsPerMinute = -1 }},
		{"half vapid pair", func(c *Config) { c.Push.VAPIDPublicKey = "pub" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
