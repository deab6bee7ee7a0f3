package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devilmonastery/shopfeed/internal/client"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Config      *Config
	ContextName string
	Context     *Context
	Client      *client.Client
	Logger      *slog.Logger

	closeStore func() error
}

// Global flags
var (
	contextOverride string
	logLevel        string
	logFile         string
	logToStderr     bool
	alsoLogStderr   bool
	logFormat       string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext

	rootCmd := &cobra.Command{
		Use:           "shopfeed",
		Short:         "CLI for the shopfeed API",
		Long:          `A command line interface for the shopfeed API with automatic session refresh.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging first
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = slog.Default().With(slog.String("component", "cli"))
			ctx.Logger.Debug("CLI started", slog.String("command", cmd.CommandPath()))

			// A missing .env is fine
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				ctx.Logger.Warn("failed to load .env", slog.String("error", err.Error()))
			}

			// Config commands manage the file themselves
			if isConfigCommand(cmd) {
				return nil
			}

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if contextOverride != "" {
				if err := config.SetCurrentContext(contextOverride); err != nil {
					return err
				}
			}
			current, err := config.GetCurrentContext()
			if err != nil {
				return err
			}
			if err := current.ApplyEnv(os.Getenv); err != nil {
				return err
			}
			if err := current.Validate(); err != nil {
				return fmt.Errorf("context %q: %w", config.CurrentContext, err)
			}

			c, closeStore, err := newClient(config.CurrentContext, current, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			c.OnLogout(func() {
				fmt.Fprintln(os.Stderr, "Session ended. Run 'shopfeed auth login' to sign in again.")
			})

			ctx.Config = config
			ctx.ContextName = config.CurrentContext
			ctx.Context = current
			ctx.Client = c
			ctx.closeStore = closeStore

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.closeStore != nil {
				return ctx.closeStore()
			}
			return nil
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newAPICommand())
	rootCmd.AddCommand(newPostsCommand())
	rootCmd.AddCommand(newProductsCommand())
	rootCmd.AddCommand(newConfigCommand())

	rootCmd.PersistentFlags().StringVar(&contextOverride, "context", "",
		"Context to use instead of current-context")

	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// setupLogging configures the global logger based on CLI flags
func setupLogging() error {
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

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}
