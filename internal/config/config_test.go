// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

func TestDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, "host = \"localhost\"\n")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Config.Port)
	assert.Equal(t, "/", cfg.Config.BaseURL)
	assert.Equal(t, "INFO", cfg.Config.LogLevel)
	assert.True(t, cfg.Config.CheckForUpdates)
	assert.False(t, cfg.Config.MetricsEnabled)
	assert.Equal(t, 9118, cfg.Config.MetricsPort)
	assert.Equal(t, "https://www.googleapis.com/books/v1/volumes", cfg.Config.CatalogEndpoint)
	assert.Equal(t, "evolibrary", cfg.Config.DownloadClientLabel)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := `host = "localhost"
port = 9000
baseUrl = "/library/"
downloadClientUrl = "http://localhost:8112"
downloadClientLabel = "books"
`
	configPath := writeConfig(t, tmpDir, content)

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Config.Port)
	assert.Equal(t, "/library/", cfg.Config.BaseURL)
	assert.Equal(t, "http://localhost:8112", cfg.Config.DownloadClientURL)
	assert.Equal(t, "books", cfg.Config.DownloadClientLabel)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, "host = \"localhost\"\nport = 9000\n")

	t.Setenv(envPrefix+"PORT", "9001")
	t.Setenv(envPrefix+"CATALOG_API_KEY", "env-key")
	t.Setenv(envPrefix+"DOWNLOAD_CLIENT_PASSWORD", "deluge-pass")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Config.Port)
	assert.Equal(t, "env-key", cfg.Config.CatalogAPIKey)
	assert.Equal(t, "deluge-pass", cfg.Config.DownloadClientPassword)
}

func TestDatabasePathResolution(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, tmpDir string) (configPath string, envDataDir string, expectedDBPath string)
	}{
		{
			name: "default_next_to_config",
			prepare: func(t *testing.T, tmpDir string) (string, string, string) {
				configPath := writeConfig(t, tmpDir, "host = \"localhost\"\n")
				return configPath, "", filepath.Join(tmpDir, "evolibrary.db")
			},
		},
		{
			name: "explicit_data_dir_in_config",
			prepare: func(t *testing.T, tmpDir string) (string, string, string) {
				dataDir := filepath.Join(tmpDir, "data")
				require.NoError(t, os.MkdirAll(dataDir, 0o755))
				configPath := writeConfig(t, tmpDir, fmt.Sprintf("host = \"localhost\"\ndataDir = %q\n", dataDir))
				return configPath, "", filepath.Join(dataDir, "evolibrary.db")
			},
		},
		{
			name: "env_var_override",
			prepare: func(t *testing.T, tmpDir string) (string, string, string) {
				configDataDir := filepath.Join(tmpDir, "config-data")
				envDataDir := filepath.Join(tmpDir, "env-data")
				require.NoError(t, os.MkdirAll(configDataDir, 0o755))
				require.NoError(t, os.MkdirAll(envDataDir, 0o755))
				configPath := writeConfig(t, tmpDir, fmt.Sprintf("host = \"localhost\"\ndataDir = %q\n", configDataDir))
				return configPath, envDataDir, filepath.Join(envDataDir, "evolibrary.db")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath, envValue, expectedDBPath := tt.prepare(t, tmpDir)
			if envValue != "" {
				t.Setenv(envPrefix+"DATA_DIR", envValue)
			}

			cfg, err := New(configPath)
			require.NoError(t, err)

			assert.Equal(t, expectedDBPath, cfg.GetDatabasePath())
		})
	}
}

func TestWriteDefaultConfigGeneratesReadableFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	require.NoError(t, WriteDefaultConfig(configPath))

	cfg, err := New(configPath)
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Config.Port)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "logLevel")
	assert.Contains(t, string(content), "catalogEndpoint")
}

func TestIsDevBuild(t *testing.T) {
	assert.True(t, isDevBuild(""))
	assert.True(t, isDevBuild("dev"))
	assert.True(t, isDevBuild("v1.2.3-dev"))
	assert.False(t, isDevBuild("v1.2.3"))
}
