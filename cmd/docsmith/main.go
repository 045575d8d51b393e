// Command docsmith runs the source-materialization and documentation
// service, either as an HTTP server or as an MCP server on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docsmithlabs/docsmith/internal/config"
	"github.com/docsmithlabs/docsmith/internal/httpapi"
	"github.com/docsmithlabs/docsmith/internal/mcp"
	"github.com/docsmithlabs/docsmith/internal/sections"
	"github.com/docsmithlabs/docsmith/internal/service"
	"github.com/docsmithlabs/docsmith/internal/session"
	"github.com/docsmithlabs/docsmith/internal/source"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "docsmith",
		Short:         "Materialize sources, index files, and generate documentation sections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(serveCmd(), stdioCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			srv, err := httpapi.NewServer(svc, logger, &httpapi.Config{
				Host:      cfg.Server.Host,
				Port:      cfg.Server.Port,
				AuthToken: cfg.Server.AuthToken,
				MaxFiles:  cfg.Index.MaxFiles,
				MaxBytes:  cfg.Index.MaxBytes,
			})
			if err != nil {
				return err
			}

			// Serve until interrupted, then drain in-flight requests.
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			case err := <-errCh:
				return err
			}
		},
	}
}

func stdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Stdout carries the MCP protocol; zap's production config
			// already writes to stderr, keeping the stream clean.
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(svc)
			if err != nil {
				return err
			}

			logger.Info("mcp server ready, listening on stdio",
				zap.String("version", version))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			return srv.Serve(ctx)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docsmith\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", session.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", session.DriverName)
		},
	}
}

// buildService assembles the pipeline from configuration: session store,
// section generator, and orchestrator.
func buildService(cfg *config.Config, logger *zap.Logger) (*service.Service, error) {
	if err := os.MkdirAll(cfg.Storage.DataRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create data root: %w", err)
	}

	var store session.Store
	var err error
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err = session.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		store, err = session.NewManifestStore(cfg.Storage.DataRoot, session.NopSyncer{})
	}
	if err != nil {
		return nil, fmt.Errorf("initialize session store: %w", err)
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize section generator: %w", err)
	}

	mgr := session.NewManager(store, cfg.Storage.DataRoot)
	auth := source.GitAuth{
		Token: cfg.Git.Token,
		Hosts: cfg.Git.Hosts,
	}
	return service.New(mgr, gen, auth, logger), nil
}

func buildGenerator(cfg *config.Config) (sections.Generator, error) {
	if cfg.Sections.Provider == "" && cfg.Groq.APIKey == "" {
		return sections.NewStaticProvider(sections.NewCache(cfg.Sections.CacheSize))
	}
	provider := cfg.Sections.Provider
	if provider == "" {
		provider = sections.ProviderGroq
	}
	return sections.New(sections.Config{
		Provider:  provider,
		APIKey:    cfg.Groq.APIKey,
		BaseURL:   cfg.Groq.BaseURL,
		Models:    cfg.Groq.Models,
		CacheSize: cfg.Sections.CacheSize,
	})
}
