package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/appstatus/internal/checker"
	"github.com/hazz-dev/appstatus/internal/config"
	"github.com/hazz-dev/appstatus/internal/query"
	"github.com/hazz-dev/appstatus/internal/scheduler"
	"github.com/hazz-dev/appstatus/internal/server"
	"github.com/hazz-dev/appstatus/internal/store"
	"github.com/hazz-dev/appstatus/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "appstatus",
		Short:        "Application status aggregation and query service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("appstatus %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// openStore opens the repository the config names.
func openStore(cfg *config.Config) (store.Repository, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return store.OpenSQLite(cfg.Storage.Path)
	case "file":
		return store.OpenFileStore(cfg.Storage.Dir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildProviders creates one StateProvider per configured dependency.
func buildProviders(cfg *config.Config) (map[string]checker.StateProvider, error) {
	providers := make(map[string]checker.StateProvider, len(cfg.Dependencies))
	for _, dep := range cfg.Dependencies {
		p, err := checker.NewProvider(dep)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", dep.Name, err)
		}
		providers[dep.Name] = p
	}
	return providers, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run periodic check cycles and serve the status API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("config loaded",
		"application", cfg.Application.Name,
		"dependencies", len(cfg.Dependencies),
	)

	repo, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening status store: %w", err)
	}
	defer repo.Close()

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	ck := checker.NewChecker(cfg.Application.HostName, logger)
	svc := query.New(cfg, providers, ck, repo, logger)

	sched := scheduler.New(svc, cfg.Check.Interval.Duration, logger)
	apiServer := server.New(svc, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: apiServer.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	sched.Start(ctx)
	logger.Info("scheduler started", "interval", cfg.Check.Interval.Duration)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	sched.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe all dependencies once and print the result",
		RunE:  runCheck,
	}
	cmd.Flags().String("output-dir", "", "write the resulting status records as JSON files to this directory")
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	return executeCheck(cmd, cfg, outputDir)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest recorded status of every service",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	repo, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening status store: %w", err)
	}
	defer repo.Close()

	ck := checker.NewChecker(cfg.Application.HostName, nil)
	svc := query.New(cfg, nil, ck, repo, nil)
	return executeStatus(cmd, svc)
}
