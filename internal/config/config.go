// Package config loads the per-user credentials and import tuning for
// the loader. Nothing here touches the network: a broken config aborts
// the run before any request is made.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredential marks a config that cannot authenticate.
var ErrMissingCredential = errors.New("missing credential")

// RetryConfig tunes the executor's backoff. Defaults are documented on
// the fields; tests inject faster values.
type RetryConfig struct {
	// MaxAttempts counts the first try plus retries. Default 4.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// BaseDelay is the first backoff delay, doubled per attempt. Default 500ms.
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	// MaxDelay caps the backoff. Default 8s.
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// ImportConfig bounds one import run.
type ImportConfig struct {
	// BatchSize caps records per request. Default 50.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
	// MaxInFlight caps concurrently submitted batches. Default 1.
	MaxInFlight int `mapstructure:"max_in_flight" yaml:"max_in_flight"`
	// RunTimeout bounds the whole invocation. Default 10m.
	RunTimeout time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
	Retry      RetryConfig   `mapstructure:"retry" yaml:"retry"`
}

// Config mirrors the per-user config file.
type Config struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	Scope        string `mapstructure:"scope" yaml:"scope"`
	AuthURL      string `mapstructure:"auth_url" yaml:"auth_url"`
	TokenURL     string `mapstructure:"token_url" yaml:"token_url"`
	InstanceURL  string `mapstructure:"instance_url" yaml:"instance_url"`

	Import ImportConfig `mapstructure:"import" yaml:"import"`
}

// DefaultPath returns the fixed per-user config location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".sensorctl", "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("import.batch_size", 50)
	v.SetDefault("import.max_in_flight", 1)
	v.SetDefault("import.run_timeout", "10m")
	v.SetDefault("import.retry.max_attempts", 4)
	v.SetDefault("import.retry.base_delay", "500ms")
	v.SetDefault("import.retry.max_delay", "8s")
}

// Load reads the config file at path, applying SENSORCTL_* environment
// overrides and documented defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SENSORCTL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configs that cannot possibly authenticate or reach an
// instance.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, val string }{
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
		{"token_url", c.TokenURL},
		{"instance_url", c.InstanceURL},
	} {
		if strings.TrimSpace(f.val) == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, f.name)
		}
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("import.batch_size must be positive, got %d", c.Import.BatchSize)
	}
	if c.Import.MaxInFlight <= 0 {
		return fmt.Errorf("import.max_in_flight must be positive, got %d", c.Import.MaxInFlight)
	}
	if c.Import.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("import.retry.max_attempts must be positive, got %d", c.Import.Retry.MaxAttempts)
	}
	return nil
}
