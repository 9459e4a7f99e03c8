package status

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/solidsilver/cftun/internal/auth"
	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/cloudflared"
	"github.com/solidsilver/cftun/internal/config"
	"github.com/solidsilver/cftun/internal/reconcile"
	"github.com/urfave/cli/v3"
)

// Command is the status command
var Command = &cli.Command{
	Name:      "status",
	Usage:     "Show tunnel and DNS record state for a domain",
	ArgsUsage: "<domain>",
	Description: `Show the current provider-side state for a domain.

Reports the resolved zone, whether a tunnel exists under the domain's
derived identity, and whether a DNS record exists for the domain. Nothing
is modified.

Example:
  cftun status api.example.com`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   config.DefaultConfigPath(),
		},
	},
	Action: runStatus,
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
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

	if err := r.Preflight(ctx); err != nil {
		return err
	}

	st, err := r.Status(ctx, domain)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Domain:\t%s\n", st.Domain)
	fmt.Fprintf(w, "Identity:\t%s\n", st.Identity)
	fmt.Fprintf(w, "Zone:\t%s (%s)\n", st.Zone.Name, st.Zone.ID)
	if st.Tunnel != nil {
		fmt.Fprintf(w, "Tunnel:\t%s (created %s)\n", st.Tunnel.ID, st.Tunnel.CreatedAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(w, "Tunnel:\tnot present\n")
	}
	if st.Record != nil {
		fmt.Fprintf(w, "Record:\t%s %s -> %s\n", st.Record.Type, st.Record.Name, st.Record.Content)
	} else {
		fmt.Fprintf(w, "Record:\tnot present\n")
	}
	w.Flush()

	return nil
}
