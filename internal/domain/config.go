// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config holds the runtime configuration loaded from config.toml and
// environment variables.
type Config struct {
	Version string

	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"baseUrl"`

	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`

	DataDir string `mapstructure:"dataDir"`

	CheckForUpdates bool `mapstructure:"checkForUpdates"`

	MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	MetricsHost    string `mapstructure:"metricsHost"`
	MetricsPort    int    `mapstructure:"metricsPort"`

	// CatalogEndpoint is the external book metadata provider (Google Books
	// compatible volumes API).
	CatalogEndpoint string `mapstructure:"catalogEndpoint"`
	CatalogAPIKey   string `mapstructure:"catalogApiKey"`

	// DownloadClientURL is the gateway the download coordinator submits
	// grabs to (Deluge-compatible web API).
	DownloadClientURL      string `mapstructure:"downloadClientUrl"`
	DownloadClientPassword string `mapstructure:"downloadClientPassword"`
	DownloadClientLabel    string `mapstructure:"downloadClientLabel"`
}
