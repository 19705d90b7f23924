// Package auth provides CLI commands for Google account authentication.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
)

// NewCommand returns the auth command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with your Google account",
		Long: `Manage Google authentication for Sheets, Gmail, Calendar and Drive access.

Setup:
  1. Create an OAuth client (type "TVs and Limited Input devices") in the
     Google Cloud console, with the Sheets, Gmail, Calendar and Drive APIs
     enabled on the project
  2. Set: export SHEETKIT_CLIENT_ID="..." SHEETKIT_CLIENT_SECRET="..."
  3. Run: sheetkit auth login`,
	}

	cmd.AddCommand(newLoginCommand())
	cmd.AddCommand(newWhoAmICommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newLogoutCommand())
	cmd.AddCommand(newRefreshCommand())

	return cmd
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Google (device code flow)",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := auth.CredentialsFromEnv()
			if err != nil {
				return err
			}

			ctx := context.Background()
			token, err := auth.DeviceCodeFlow(ctx, creds)
			if err != nil {
				return err
			}

			client := &auth.BearerTransport{Token: token.AccessToken}
			email, err := auth.WhoAmI(ctx, clientFor(client))
			if err != nil {
				fmt.Println("Authenticated (could not fetch account email)")
				return nil
			}

			color.New(color.FgGreen).Printf("Authenticated as %s\n", email)
			fmt.Println("Token saved to ~/.sheetkit/token.json")
			return nil
		},
	}
}

func newWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current authenticated account",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			ctx := context.Background()

			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			token, _ := auth.LoadToken()

			email, err := auth.WhoAmI(ctx, client)
			if err != nil {
				return fmt.Errorf("could not fetch account info: %w", err)
			}

			if jsonFlag {
				return printJSON(map[string]any{
					"email":     email,
					"expiresIn": int(token.ExpiresIn().Minutes()),
				})
			}

			fmt.Println(email)
			if token != nil {
				fmt.Printf("Token expires in %d minutes\n", int(token.ExpiresIn().Minutes()))
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			token, err := auth.LoadToken()
			if err != nil {
				if jsonFlag {
					return printJSON(map[string]any{
						"authenticated": false,
						"error":         err.Error(),
					})
				}
				fmt.Println("Not authenticated — run: sheetkit auth login")
				return nil
			}

			if jsonFlag {
				return printJSON(map[string]any{
					"authenticated": true,
					"expired":       token.IsExpired(),
					"expiresAt":     token.ExpiresAt.Format(time.RFC3339),
					"expiresIn":     int(token.ExpiresIn().Minutes()),
					"scopes":        auth.Scopes(),
				})
			}

			if token.IsExpired() {
				color.New(color.FgRed).Println("Token expired — run: sheetkit auth login")
				return nil
			}

			green := color.New(color.FgGreen)
			green.Print("Authenticated")

			ctx := context.Background()
			client, authErr := auth.RequireAuth(ctx)
			if authErr == nil {
				if email, err := auth.WhoAmI(ctx, client); err == nil {
					green.Printf(": %s", email)
				}
			}
			fmt.Println()

			fmt.Printf("Token expires: %s (%d minutes)\n",
				token.ExpiresAt.Format("2006-01-02 15:04"),
				int(token.ExpiresIn().Minutes()))
			fmt.Printf("Scopes: %s\n", strings.Join(shortScopes(), ", "))
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke authentication (delete token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteToken(); err != nil {
				return err
			}
			fmt.Println("Logged out — token deleted")
			return nil
		},
	}
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the authentication token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.LoadToken()
			if err != nil {
				return err
			}

			creds, err := auth.CredentialsFromEnv()
			if err != nil {
				return err
			}

			refreshed, err := auth.RefreshIfNeeded(context.Background(), token, creds)
			if err != nil {
				return fmt.Errorf("token refresh failed: %w\nRun: sheetkit auth login", err)
			}

			fmt.Printf("Token refreshed — expires in %d minutes\n",
				int(refreshed.ExpiresIn().Minutes()))
			return nil
		},
	}
}

// shortScopes trims the googleapis URL prefix for display.
func shortScopes() []string {
	var out []string
	for _, s := range auth.Scopes() {
		if i := strings.LastIndex(s, "/"); i >= 0 {
			s = s[i+1:]
		}
		out = append(out, s)
	}
	return out
}

func clientFor(t *auth.BearerTransport) *http.Client {
	return &http.Client{Transport: t}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
