package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dctool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "port: /dev/ttyUSB0\nfingerprint: \"07e8051e0b2d00\"\n")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, "", cfg.Image)
	assert.Equal(t, "07e8051e0b2d00", cfg.Fingerprint)
}

func TestLoadConfigRejectsPortAndImage(t *testing.T) {
	path := writeConfig(t, "port: /dev/ttyUSB0\nimage: memory.bin\n")

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "port: [unterminated\n")

	_, err := loadConfig(path)
	assert.Error(t, err)
}
