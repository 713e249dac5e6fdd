package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig carries defaults for the global flags, so a fixed setup
// does not have to be retyped on every invocation.
type fileConfig struct {
	Port        string `yaml:"port"`
	Image       string `yaml:"image"`
	Fingerprint string `yaml:"fingerprint"`
}

func loadConfig(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Port != "" && cfg.Image != "" {
		return nil, fmt.Errorf("config %q sets both port and image", path)
	}
	return &cfg, nil
}
