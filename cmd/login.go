package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodja/ChatGPT/internal/auth"
	"github.com/rodja/ChatGPT/internal/config"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var sessionToken string
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a session token for an access token",
		Long: `Exchange a browser session token for an API access token.

The session token comes from the __Secure-next-auth.session-token cookie
of a logged-in chat.openai.com browser session. The resulting access
token is cached locally and reused until it expires.

Examples:
  chatgpt login --session-token <token>
  chatgpt login                             # token from config file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(sessionToken, email)
		},
	}

	cmd.Flags().StringVar(&sessionToken, "session-token", "", "Browser session token")
	cmd.Flags().StringVar(&email, "email", "", "Account email used as the cache key")
	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email used as the cache key")
	return cmd
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email used as the cache key")
	return cmd
}

func openDefaultCache() (*auth.Cache, error) {
	path, err := auth.DefaultCachePath()
	if err != nil {
		return nil, err
	}
	return auth.OpenCache(path), nil
}

func runLogin(sessionToken, email string) error {
	// Fall back to the config file for anything not given as a flag.
	if sessionToken == "" || email == "" {
		if cfg, err := config.Load(); err == nil {
			if sessionToken == "" {
				sessionToken = cfg.SessionToken
			}
			if email == "" {
				email = cfg.Email
			}
		} else if !errors.Is(err, config.ErrNoConfigFile) {
			return err
		}
	}

	authenticator, err := auth.NewSessionAuthenticator(auth.Credentials{
		SessionToken: sessionToken,
		Email:        email,
	})
	if err != nil {
		return err
	}

	fmt.Println("Exchanging session token...")
	token, err := authenticator.Obtain(context.Background())
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cache, err := openDefaultCache()
	if err != nil {
		return err
	}
	if err := cache.SaveAccessToken(email, token.AccessToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("Successfully logged in.")
	fmt.Printf("Access token cached at %s\n", cache.Path())
	return nil
}

func runLogout(email string) error {
	cache, err := openDefaultCache()
	if err != nil {
		return err
	}
	if err := cache.DeleteAccessToken(email); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	fmt.Println("Successfully logged out.")
	return nil
}

func runStatus(email string) error {
	cache, err := openDefaultCache()
	if err != nil {
		return err
	}

	fmt.Println("Authentication Status:")
	fmt.Println()

	token, err := cache.AccessToken(email)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		fmt.Println("  Logged in, but the access token has expired")
		fmt.Println("  Run 'chatgpt login' to refresh it")
	case errors.Is(err, auth.ErrTokenInvalid):
		fmt.Println("  Cached access token is not a valid JWT")
		fmt.Println("  Run 'chatgpt login' to replace it")
	case err != nil:
		return err
	case token == "":
		fmt.Println("  Not logged in")
		fmt.Println("  Run 'chatgpt login' to authenticate")
	default:
		fmt.Println("  Logged in")
		fmt.Printf("  Token cached at %s\n", cache.Path())
	}

	return nil
}
