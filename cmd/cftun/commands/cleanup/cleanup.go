package cleanup

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/solidsilver/cftun/internal/auth"
	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/cloudflared"
	"github.com/solidsilver/cftun/internal/config"
	"github.com/solidsilver/cftun/internal/reconcile"
	"github.com/urfave/cli/v3"
)

// Command is the cleanup command
var Command = &cli.Command{
	Name:      "cleanup",
	Usage:     "Remove the tunnel and DNS record for a domain",
	ArgsUsage: "<domain>",
	Description: `Remove the tunnel and DNS record provisioned for a domain.

This is the teardown half of 'cftun expose' on its own, for when a previous
run could not finish its own cleanup. Removal of each resource is awaited
and failure to confirm removal is an error, unlike the best-effort teardown
that runs on shutdown.

Already-absent resources are fine; running cleanup twice is safe.

Example:
  cftun cleanup api.example.com`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   config.DefaultConfigPath(),
		},
	},
	Action: runCleanup,
}

func runCleanup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("domain is required")
	}

	domain := strings.TrimSuffix(cmd.Args().Get(0), ".")
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid domain %q: must be a fully qualified name", domain)
	}

	settings, err := config.Resolve(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.APIToken == "" {
		settings.APIToken = auth.ResolveToken()
	}

	r := reconcile.New(
		cloudflare.NewClient(settings.APIToken),
		cloudflared.New(settings.CloudflaredBinary, settings.CloudflaredDir),
		settings,
	)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := r.Preflight(sigCtx); err != nil {
		return err
	}

	if err := r.Cleanup(sigCtx, domain); err != nil {
		return err
	}

	fmt.Printf("✓ Cleanup complete for %s\n", domain)
	return nil
}
