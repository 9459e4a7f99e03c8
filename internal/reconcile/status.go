package reconcile

import (
	"context"
	"fmt"

	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/cloudflared"
)

// Status is a read-only snapshot of the resources tied to a domain
type Status struct {
	Domain   string
	Identity string
	Zone     cloudflare.Zone
	Tunnel   *cloudflared.Tunnel
	Record   *cloudflare.Record
}

// Status reports the current provider-side state for domain without
// mutating anything
func (r *Reconciler) Status(ctx context.Context, domain string) (*Status, error) {
	zone, err := r.dns.ResolveZone(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve zone for %s: %w", domain, err)
	}

	identity := Identity(domain)

	tunnel, err := r.daemon.Find(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to check for tunnel %s: %w", identity, err)
	}

	record, err := r.dns.FindRecord(ctx, zone.ID, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to check for dns record %s: %w", domain, err)
	}

	return &Status{
		Domain:   domain,
		Identity: identity,
		Zone:     zone,
		Tunnel:   tunnel,
		Record:   record,
	}, nil
}
