package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/shopfeed/internal/client"
	"github.com/devilmonastery/shopfeed/internal/credstore"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration and contexts",
		Long:  `Manage CLI configuration including server contexts, similar to kubectl contexts.`,
	}

	// Add subcommands
	cmd.AddCommand(newCurrentContextCommand())
	cmd.AddCommand(newUseContextCommand())
	cmd.AddCommand(newListContextsCommand())
	cmd.AddCommand(newAddContextCommand())
	cmd.AddCommand(newDeleteContextCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// current-context command
func newCurrentContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "current-context",
		Short: "Display the current context",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println(config.CurrentContext)
			return nil
		},
	}
}

// use-context command
func newUseContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use-context CONTEXT_NAME",
		Short: "Switch to a different context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := config.SetCurrentContext(contextName); err != nil {
				return err
			}

			if err := SaveConfig(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Switched to context %q\n", contextName)
			return nil
		},
	}
}

// list-contexts command
func newListContextsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list-contexts",
		Aliases: []string{"get-contexts"},
		Short:   "List all available contexts",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if len(config.Contexts) == 0 {
				fmt.Println("No contexts configured")
				return nil
			}

			// Sort context names for consistent output
			names := make([]string, 0, len(config.Contexts))
			for name := range config.Contexts {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CURRENT\tNAME\tSERVER\tCREDENTIALS\tTHEME")

			for _, name := range names {
				ctx := config.Contexts[name]
				current := " "
				if name == config.CurrentContext {
					current = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					current,
					name,
					ctx.Server.URL,
					ctx.Credentials.Backend,
					ctx.Rendering.Theme,
				)
			}
			w.Flush()

			return nil
		},
	}
}

// add-context command
func newAddContextCommand() *cobra.Command {
	var (
		serverURL      string
		backend        string
		redisAddr      string
		redisPrefix    string
		refreshTimeout time.Duration
		theme          string
		timezone       string
	)

	cmd := &cobra.Command{
		Use:   "add-context CONTEXT_NAME",
		Short: "Add or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx := NewContext(serverURL)
			ctx.Credentials.Backend = backend
			ctx.Credentials.RedisAddr = redisAddr
			ctx.Credentials.RedisPrefix = redisPrefix
			ctx.RefreshTimeout = refreshTimeout
			ctx.Rendering.Theme = theme
			ctx.Rendering.Timezone = timezone
			if err := ctx.Validate(); err != nil {
				return err
			}

			config.AddContext(contextName, ctx)

			// If this is the first context, make it current
			if len(config.Contexts) == 1 {
				config.CurrentContext = contextName
			}

			if err := SaveConfig(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Context %q added/updated\n", contextName)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server base URL, e.g. https://api.example.com")
	cmd.Flags().StringVar(&backend, "credentials", BackendFile, "Credential backend (file, redis)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the redis backend")
	cmd.Flags().StringVar(&redisPrefix, "redis-prefix", "", "Redis key prefix (default shopfeed:<context>)")
	cmd.Flags().DurationVar(&refreshTimeout, "refresh-timeout", client.DefaultRefreshTimeout, "Timeout for one session refresh")
	cmd.Flags().StringVar(&theme, "theme", "auto", "Rendering theme")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for timestamps (default UTC)")
	cmd.MarkFlagRequired("server")

	return cmd
}

// delete-context command
func newDeleteContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-context CONTEXT_NAME",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := config.DeleteContext(contextName); err != nil {
				return err
			}

			if err := SaveConfig(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Context %q deleted\n", contextName)
			return nil
		},
	}
}

// show command
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current context configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, err := config.GetCurrentContext()
			if err != nil {
				return fmt.Errorf("failed to get current context: %w", err)
			}

			fmt.Printf("Current context: %s\n", config.CurrentContext)
			fmt.Printf("  Server URL: %s\n", ctx.Server.URL)
			fmt.Printf("  Credentials: %s\n", ctx.Credentials.Backend)
			switch ctx.Credentials.Backend {
			case BackendRedis:
				fmt.Printf("  Redis: %s\n", ctx.Credentials.RedisAddr)
			default:
				if path, err := credstore.DefaultFilePath(config.CurrentContext); err == nil {
					fmt.Printf("  Credentials File: %s\n", path)
				}
			}
			fmt.Printf("  Refresh Timeout: %s\n", ctx.RefreshTimeout)
			fmt.Printf("  Glamour Theme: %s\n", ctx.Rendering.Theme)
			if ctx.Rendering.Timezone != "" {
				fmt.Printf("  Timezone: %s\n", ctx.Rendering.Timezone)
			}

			configPath, _ := GetConfigPath()
			fmt.Printf("  Config File: %s\n", configPath)

			return nil
		},
	}
}
