package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/shopfeed/internal/auth"
	"github.com/devilmonastery/shopfeed/internal/config"
	"github.com/devilmonastery/shopfeed/internal/pkg/idgen"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
	"github.com/devilmonastery/shopfeed/server/internal/handlers"
	"github.com/devilmonastery/shopfeed/server/internal/store"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath    string
		nodeID        int64
		logLevel      string
		logFile       string
		logToStderr   bool
		alsoLogStderr bool
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Shopfeed development backend",
		Long:  "An in-memory HTTP backend issuing rotating sessions, for exercising shopfeed clients locally",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupServerLogging(logLevel, logFile, logToStderr, alsoLogStderr, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath, nodeID)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (optional)")
	cmd.Flags().Int64Var(&nodeID, "node-id", 1, "Snowflake node id for generated ids")

	// Add logging flags
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (if specified, logs to file instead of stderr)")
	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr (default behavior unless --log-file specified)")
	cmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false, "Log to both file and stderr")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (text, json)")

	// Add subcommands
	cmd.AddCommand(newUserCommand())
	cmd.AddCommand(newTokenCommand(&configPath))

	return cmd
}

// setupServerLogging configures the global logger for the server
func setupServerLogging(logLevel, logFile string, logToStderr, alsoLogStderr bool, logFormat string) error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger
	slog.SetDefault(globalLogger)

	return nil
}

func runServer(ctx context.Context, configPath string, nodeID int64) error {
	log := slog.Default().With(slog.String("component", "server"))
	log.Info("starting server initialization")

	// Initialize Snowflake ID generator
	if err := idgen.Initialize(nodeID); err != nil {
		return fmt.Errorf("failed to initialize ID generator: %w", err)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	st := store.New(cfg.Auth.RefreshLifetime)
	if err := st.Seed(cfg.Seed, cfg.Auth.BcryptCost); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	log.Info("store seeded",
		slog.Int("users", len(cfg.Seed.Users)),
		slog.Int("stores", len(cfg.Seed.Stores)))

	jwtManager := auth.NewJWTManager(cfg.Auth.JWT.SigningKey, cfg.Auth.JWT.Lifetime, cfg.Auth.JWT.Issuer)
	h := handlers.New(st, jwtManager, cfg.Auth, slog.Default())

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			slog.String("address", srv.Addr),
			slog.String("environment", cfg.Environment),
			slog.Duration("access_lifetime", cfg.Auth.JWT.Lifetime),
			slog.Duration("refresh_lifetime", cfg.Auth.RefreshLifetime))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}
