package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// template is ordered the way operators expect to read the file:
// credentials first, then import tuning.
var template = yaml.MapSlice{
	{Key: "client_id", Value: "your-client-id"},
	{Key: "client_secret", Value: "your-client-secret"},
	{Key: "scope", Value: "platform-api"},
	{Key: "auth_url", Value: "https://auth.example.com/authorize"},
	{Key: "token_url", Value: "https://auth.example.com/oauth/token"},
	{Key: "instance_url", Value: "https://instance.example.com"},
	{Key: "import", Value: yaml.MapSlice{
		{Key: "batch_size", Value: 50},
		{Key: "max_in_flight", Value: 1},
		{Key: "run_timeout", Value: "10m"},
		{Key: "retry", Value: yaml.MapSlice{
			{Key: "max_attempts", Value: 4},
			{Key: "base_delay", Value: "500ms"},
			{Key: "max_delay", Value: "8s"},
		}},
	}},
}

// WriteTemplate writes a starter config file, refusing to clobber an
// existing one.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	raw, err := yaml.Marshal(template)
	if err != nil {
		return fmt.Errorf("encode config template: %w", err)
	}
	// Credentials live here; keep the file private.
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config template: %w", err)
	}
	return nil
}
