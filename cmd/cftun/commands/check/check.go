package check

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/urfave/cli/v3"
)

// TunnelCNAMESuffix is the CNAME target domain Cloudflare uses for tunnels
const TunnelCNAMESuffix = ".cfargotunnel.com."

// Command is the check command
var Command = &cli.Command{
	Name:      "check",
	Usage:     "Verify DNS resolution for an exposed domain",
	ArgsUsage: "<domain>",
	Description: `Verify that a domain's tunnel route is visible in DNS.

Queries the CNAME record for the domain and reports whether it points at a
Cloudflare Tunnel endpoint. Useful after 'cftun expose' to confirm the route
has propagated.

Note that Cloudflare serves proxied records as A/AAAA at the edge, so a
missing CNAME answer does not always mean the route is absent; the command
falls back to an A query before concluding anything.

Examples:
  cftun check api.example.com
  cftun check api.example.com --server 8.8.8.8:53`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "server",
			Usage: "DNS server to query",
			Value: "1.1.1.1:53",
		},
	},
	Action: runCheck,
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("domain is required")
	}

	domain := cmd.Args().Get(0)
	server := cmd.String("server")
	fqdn := dns.Fqdn(domain)

	fmt.Printf("Checking DNS for %s via %s\n", domain, server)

	client := &dns.Client{Timeout: 5 * time.Second}

	cname, err := queryCNAME(ctx, client, server, fqdn)
	if err != nil {
		return err
	}

	if cname != "" {
		if strings.HasSuffix(cname, TunnelCNAMESuffix) {
			fmt.Printf("✓ %s -> %s (tunnel route)\n", domain, strings.TrimSuffix(cname, "."))
			return nil
		}
		fmt.Printf("⚠ %s -> %s (not a tunnel route)\n", domain, strings.TrimSuffix(cname, "."))
		return nil
	}

	// Proxied records answer as A at the edge
	addrs, err := queryA(ctx, client, server, fqdn)
	if err != nil {
		return err
	}

	if len(addrs) == 0 {
		return fmt.Errorf("%s does not resolve via %s", domain, server)
	}

	fmt.Printf("✓ %s resolves to %s (proxied; CNAME target not visible)\n", domain, strings.Join(addrs, ", "))
	return nil
}

func queryCNAME(ctx context.Context, client *dns.Client, server, fqdn string) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeCNAME)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return "", fmt.Errorf("dns query failed: %w", err)
	}

	for _, rr := range resp.Answer {
		if cname, ok := rr.(*dns.CNAME); ok {
			return cname.Target, nil
		}
	}
	return "", nil
}

func queryA(ctx context.Context, client *dns.Client, server, fqdn string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("dns query failed: %w", err)
	}

	var addrs []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return addrs, nil
}
