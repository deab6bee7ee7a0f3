package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devilmonastery/shopfeed/internal/client"
	"github.com/devilmonastery/shopfeed/internal/pkg/timeutil"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage the shopfeed session for the current context`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthSignupCommand())
	cmd.AddCommand(newAuthVerifyCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthTokenCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			email, password, err := promptCredentials(email)
			if err != nil {
				return err
			}

			user, err := cli.Client.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Successfully logged in as %s\n", user.Email)
			printExpiry(cmd.Context(), cli)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if empty)")

	return cmd
}

func newAuthSignupCommand() *cobra.Command {
	var (
		email string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			email, password, err := promptCredentials(email)
			if err != nil {
				return err
			}

			user, err := cli.Client.SignUp(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Account created for %s\n", user.Email)
			if _, ok, _ := cli.Client.Credentials().Get(cmd.Context(), client.KindAccess); ok {
				fmt.Println("  You are now logged in.")
			} else {
				fmt.Println("  Verify your email with 'shopfeed auth verify', then log in.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func newAuthVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify EMAIL CODE",
		Short: "Verify an email address with the code sent at signup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)
			if err := cli.Client.VerifyEmail(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("✓ %s verified\n", args[0])
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)
			if err := cli.Client.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			fmt.Println("✓ Successfully logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			_, ok, err := cli.Client.Credentials().Get(cmd.Context(), client.KindRefresh)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Not logged in")
				return nil
			}

			// Me refreshes an expired access token on the way
			user, err := cli.Client.Me(cmd.Context())
			if errors.Is(err, client.ErrRefreshRejected) {
				fmt.Printf("Not logged in (session ended: %s)\n", client.ReasonOf(err))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as: %s\n", user.Email)
			fmt.Printf("User ID: %s\n", user.ID)
			fmt.Printf("Context: %s (%s)\n", cli.ContextName, cli.Context.Server.URL)
			if storeID, err := cli.Client.Credentials().StoreID(cmd.Context()); err == nil && storeID != "" {
				fmt.Printf("Store: %s\n", storeID)
			}
			printExpiry(cmd.Context(), cli)
			return nil
		},
	}
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Display the current access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)
			token, err := cli.Client.Credentials().Access(cmd.Context())
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("not logged in")
			}
			fmt.Println(token)
			return nil
		},
	}
}

// printExpiry shows when the stored access token expires
func printExpiry(ctx context.Context, cli *CliContext) {
	token, err := cli.Client.Credentials().Access(ctx)
	if err != nil {
		return
	}
	expiresAt := client.ExpiresAt(token)
	if expiresAt.IsZero() {
		return
	}

	loc := timeutil.Location(cli.Context.Rendering.Timezone)
	fmt.Printf("  Token expires: %s (%s)\n",
		expiresAt.In(loc).Format(timeutil.DisplayLayout),
		timeutil.Until(expiresAt, time.Now()))
}

func promptCredentials(email string) (string, string, error) {
	if email == "" {
		fmt.Print("Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	// Get password (hidden)
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after password input
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	return email, string(passwordBytes), nil
}
