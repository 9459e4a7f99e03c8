package auth

import (
	"context"
	"fmt"
	"strings"
	"syscall"

	"github.com/solidsilver/cftun/internal/auth"
	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Command is the top-level auth command
var Command = &cli.Command{
	Name:  "auth",
	Usage: "Manage the stored Cloudflare API token",
	Description: `Store or remove the Cloudflare API token.

The token is kept in the OS keyring when available, otherwise in a
restricted file under the cftun config directory. The ` + "CLOUDFLARE_API_TOKEN" + `
environment variable always takes precedence over the stored token.`,
	Commands: []*cli.Command{
		loginCommand,
		logoutCommand,
	},
}

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Verify and store a Cloudflare API token",
	Description: `Prompt for a Cloudflare API token, verify it against the API,
and store it for later runs.

The token needs Zone:Read and DNS:Edit permissions for the zones you intend
to expose services under.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "token",
			Usage: "API token (prompted for when omitted)",
		},
	},
	Action: runLogin,
}

var logoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Remove the stored API token",
	Action: runLogout,
}

func runLogin(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")

	if token == "" {
		fmt.Print("Cloudflare API token: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	fmt.Println("Verifying token...")
	client := cloudflare.NewClient(token)
	if err := client.VerifyToken(ctx); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	if err := auth.StoreToken(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Println("✓ Token verified and stored")
	return nil
}

func runLogout(ctx context.Context, cmd *cli.Command) error {
	if err := auth.ClearToken(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	fmt.Println("✓ Stored token removed")
	return nil
}
