package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays settings from a YAML file onto cfg. Secrets are never
// read from the file; they stay environment-only.
func LoadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	overlay := *cfg
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overlay.Auth.JWTSecret = cfg.Auth.JWTSecret
	overlay.Email.SMTPPassword = cfg.Email.SMTPPassword
	overlay.Email.ResendAPIKey = cfg.Email.ResendAPIKey
	if err := overlay.Validate(); err != nil {
		return err
	}
	*cfg = overlay
	return nil
}
