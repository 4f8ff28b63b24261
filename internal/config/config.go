// Package config loads cesta's settings from flags, environment and an
// optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/cesta/internal/backup"
	"github.com/dukerupert/cesta/internal/gemini"
	"github.com/dukerupert/cesta/internal/push"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: CESTA_PORT, CESTA_S3_BUCKET...
const EnvPrefix = "CESTA"

var envReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	Gemini gemini.Config
	Push   push.Config
	Backup backup.Config

	// Per client IP limits on routes that may call the AI service. Zero
	// disables a limit.
	InsightsPerMinute int
	ItemsPerMinute    int
}

// SetDefaults registers every key with its default so AutomaticEnv can
// resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "cesta.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.timeout", gemini.DefaultTimeout)

	v.SetDefault("ratelimit.insights_per_minute", 10)
	v.SetDefault("ratelimit.items_per_minute", 60)

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.prefix", "cesta")

	v.SetDefault("backup.passphrase", "")
	v.SetDefault("backup.interval", 24*time.Hour)
	v.SetDefault("backup.retention_days", 30)

	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.subscriber", "")
}

// Init prepares v: defaults, env binding and the config file. A missing
// config file is fine; a broken one is not.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cesta"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load reads the settings out of an initialized viper instance.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:      v.GetString("port"),
		DBPath:    v.GetString("db_path"),
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		Gemini: gemini.Config{
			APIKey:  geminiKey(v),
			Model:   v.GetString("gemini.model"),
			Timeout: v.GetDuration("gemini.timeout"),
		},
		Push: push.Config{
			VAPIDPublicKey:  v.GetString("push.vapid_public_key"),
			VAPIDPrivateKey: v.GetString("push.vapid_private_key"),
			Subscriber:      v.GetString("push.subscriber"),
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  v.GetString("s3.endpoint"),
				Bucket:    v.GetString("s3.bucket"),
				Region:    v.GetString("s3.region"),
				AccessKey: v.GetString("s3.access_key"),
				SecretKey: v.GetString("s3.secret_key"),
			},
			Prefix:        v.GetString("s3.prefix"),
			Passphrase:    v.GetString("backup.passphrase"),
			Interval:      v.GetDuration("backup.interval"),
			RetentionDays: v.GetInt("backup.retention_days"),
		},
		InsightsPerMinute: v.GetInt("ratelimit.insights_per_minute"),
		ItemsPerMinute:    v.GetInt("ratelimit.items_per_minute"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// geminiKey prefers the namespaced key and falls back to the variables the
// Gemini tooling itself reads.
func geminiKey(v *viper.Viper) string {
	if key := v.GetString("gemini.api_key"); key != "" {
		return key
	}
	for _, env := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return ""
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.Gemini.Timeout < 0 {
		return fmt.Errorf("gemini.timeout must not be negative: %s", c.Gemini.Timeout)
	}
	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("backup.retention_days must be at least 1: %d", c.Backup.RetentionDays)
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("backup.interval must not be negative: %s", c.Backup.Interval)
	}
	if c.InsightsPerMinute < 0 {
		return fmt.Errorf("ratelimit.insights_per_minute must not be negative: %d", c.InsightsPerMinute)
	}
	if c.ItemsPerMinute < 0 {
		return fmt.Errorf("ratelimit.items_per_minute must not be negative: %d", c.ItemsPerMinute)
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		return errors.New("push.vapid_public_key and push.vapid_private_key must be set together")
	}
	return nil
}
