package expose

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/solidsilver/cftun/internal/auth"
	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/cloudflared"
	"github.com/solidsilver/cftun/internal/config"
	"github.com/solidsilver/cftun/internal/reconcile"
	"github.com/urfave/cli/v3"
)

// Command is the expose command
var Command = &cli.Command{
	Name:      "expose",
	Usage:     "Expose a local port under a public domain",
	ArgsUsage: "<domain> <port>",
	Description: `Expose a local network service under a public domain name.

This provisions a Cloudflare Tunnel for the domain, binds the domain to it
with a DNS route, and runs the tunnel in the foreground. Any prior tunnel or
DNS record for the same domain is removed first. On exit (including Ctrl-C)
the tunnel and DNS record are torn down again.

Requires:
  - cloudflared installed and logged in (cloudflared tunnel login)
  - A Cloudflare API token in ` + config.TokenEnvVar + ` or stored via 'cftun auth login'

Examples:
  cftun expose api.example.com 8080
  cftun expose dev.example.com 3000 --config /etc/cftun/config.yaml`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   config.DefaultConfigPath(),
		},
	},
	Action: runExpose,
}

func runExpose(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("requires 2 arguments: <domain> <port>")
	}

	domain := strings.TrimSuffix(cmd.Args().Get(0), ".")
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid domain %q: must be a fully qualified name", domain)
	}

	port, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q: must be 1-65535", cmd.Args().Get(1))
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

	// Interrupting the foreground run must still route into teardown, so
	// the signal cancels the context instead of killing the process.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := r.Preflight(sigCtx); err != nil {
		return err
	}

	return r.Provision(sigCtx, domain, port)
}
