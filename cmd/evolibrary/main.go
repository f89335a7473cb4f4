// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evolibrary/evolibrary/internal/achievements"
	"github.com/evolibrary/evolibrary/internal/api"
	"github.com/evolibrary/evolibrary/internal/buildinfo"
	"github.com/evolibrary/evolibrary/internal/catalog"
	"github.com/evolibrary/evolibrary/internal/config"
	"github.com/evolibrary/evolibrary/internal/database"
	"github.com/evolibrary/evolibrary/internal/download"
	"github.com/evolibrary/evolibrary/internal/indexer"
	"github.com/evolibrary/evolibrary/internal/logstream"
	"github.com/evolibrary/evolibrary/internal/metrics"
	"github.com/evolibrary/evolibrary/internal/models"
	"github.com/evolibrary/evolibrary/internal/notify"
	"github.com/evolibrary/evolibrary/internal/search"
	"github.com/evolibrary/evolibrary/internal/update"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "evolibrary",
		Short: "A self-hosted personal book library",
		Long: `evolibrary - a self-hosted library manager that searches book
metadata, finds downloads across your indexers and sends grabs to your
download client.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		dataDir   string
		logPath   string
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/evolibrary/ or %APPDATA%\\evolibrary\\). For backward compatibility, can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory for database and other files (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, dataDir, logPath, pprofFlag)
		app.runServer()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of evolibrary",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/evolibrary/config.toml
- Windows: %APPDATA%\evolibrary\config.toml

You can specify either a directory path or a direct file path:
- Directory: evolibrary generate-config --config-dir /path/to/config/
- File: evolibrary generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				defaultDir := config.GetDefaultConfigDir()
				configPath = filepath.Join(defaultDir, "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	dataDir   string
	logPath   string
	pprofFlag bool
}

func NewApplication(configDir, dataDir, logPath string, pprofFlag bool) *Application {
	return &Application{
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
		pprofFlag: pprofFlag,
	}
}

func (app *Application) runServer() {
	// Initialize configuration
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.dataDir != "" {
		os.Setenv("EVOLIBRARY__DATA_DIR", app.dataDir)
		cfg.SetDataDir(app.dataDir)
	}
	if app.logPath != "" {
		os.Setenv("EVOLIBRARY__LOG_PATH", app.logPath)
		cfg.Config.LogPath = app.logPath
	}

	// Log lines also fan out to the activity stream in the UI.
	broadcaster := logstream.NewBroadcaster()
	cfg.ApplyLogConfig(broadcaster)

	log.Info().Str("version", buildinfo.Version).Msg("Starting evolibrary")

	// Initialize database
	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Initialize stores
	indexerStore := models.NewIndexerStore(db)
	bookStore := models.NewBookStore(db)
	counterStore := models.NewCounterStore(db)
	recentSearchStore := models.NewRecentSearchStore(db)
	achievementStore := models.NewAchievementStore(db)

	// Initialize services
	notifier := notify.NewNotifier()

	catalogClient := catalog.NewClient(cfg.Config.CatalogEndpoint, cfg.Config.CatalogAPIKey, log.Logger)
	indexerService := indexer.NewService(indexerStore, log.Logger)

	delugeClient := download.NewDelugeClient(
		cfg.Config.DownloadClientURL,
		cfg.Config.DownloadClientPassword,
		cfg.Config.DownloadClientLabel,
		log.Logger,
	)
	coordinator := download.NewCoordinator(delugeClient, counterStore, notifier, log.Logger)

	achievementService, err := achievements.NewService(bookStore, counterStore, achievementStore, notifier, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize achievement service")
	}

	controller := search.NewController(search.Config{
		Catalog:  catalogClient,
		Indexers: indexerService,
		History:  recentSearchStore,
		Counters: counterStore,
		Notifier: notifier,
		Logger:   log.Logger,
	})
	defer controller.Close()

	var updateChecker *update.Checker
	if cfg.Config.CheckForUpdates {
		updateChecker = update.NewChecker(log.Logger)
		updateCtx, cancelUpdate := context.WithCancel(context.Background())
		defer cancelUpdate()
		updateChecker.Start(updateCtx, 0)
	}

	errorChannel := make(chan error)

	var metricsManager *metrics.Manager
	if cfg.Config.MetricsEnabled {
		metricsManager = metrics.NewManager(bookStore, counterStore, log.Logger)

		metricsCtx, cancelMetrics := context.WithCancel(context.Background())
		defer cancelMetrics()

		// Metrics server runs on its own port
		go func() {
			metricsServer := metrics.NewServer(
				metricsManager,
				cfg.Config.MetricsHost,
				cfg.Config.MetricsPort,
				log.Logger,
			)

			errorChannel <- metricsServer.Start(metricsCtx)
		}()
	}

	// Start server in goroutine
	httpServer := api.NewServer(&api.Dependencies{
		Config:             cfg,
		DB:                 db,
		CatalogClient:      catalogClient,
		IndexerService:     indexerService,
		IndexerStore:       indexerStore,
		Coordinator:        coordinator,
		Controller:         controller,
		BookStore:          bookStore,
		CounterStore:       counterStore,
		RecentSearchStore:  recentSearchStore,
		AchievementService: achievementService,
		Notifier:           notifier,
		UpdateChecker:      updateChecker,
		Broadcaster:        broadcaster,
		Metrics:            metricsManager,
	})

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	// Start profiling server if enabled
	if app.pprofFlag {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")

		os.Exit(1)
	}
}
