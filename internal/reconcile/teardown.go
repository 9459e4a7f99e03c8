package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/poll"
)

// Cleanup is the pure-cleanup entry point: it removes whatever tunnel and
// DNS record exist for domain and fails if removal cannot be confirmed.
// Unlike shutdown teardown, a convergence timeout here is fatal.
func (r *Reconciler) Cleanup(ctx context.Context, domain string) error {
	zone, err := r.dns.ResolveZone(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to resolve zone for %s: %w", domain, err)
	}
	r.logf("✓ Zone resolved: %s (%s)", zone.Name, zone.ID)

	return r.teardownCtx(ctx, zone, Identity(domain), domain, true)
}

// teardown runs the shutdown-path teardown on a fresh context: the parent
// context is typically already cancelled (signal, daemon exit) and must not
// prevent cleanup from reaching the provider.
func (r *Reconciler) teardown(zone cloudflare.Zone, identity, fqdn string, strict bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.teardownBudget())
	defer cancel()
	return r.teardownCtx(ctx, zone, identity, fqdn, strict)
}

// teardownBudget bounds the whole teardown phase: two convergence waits plus
// slack for the surrounding API calls
func (r *Reconciler) teardownBudget() time.Duration {
	return 2*r.settings.ConvergenceTimeout + 30*time.Second
}

// teardownCtx removes the tunnel and DNS record if present and awaits their
// removal. Every step tolerates the target already being gone, so teardown
// is safe to run twice. Deletes are best-effort in both modes; in strict
// mode an unconfirmed removal is an error, otherwise it is logged and the
// shutdown proceeds.
func (r *Reconciler) teardownCtx(ctx context.Context, zone cloudflare.Zone, identity, fqdn string, strict bool) error {
	tunnel, err := r.daemon.Find(ctx, identity)
	if err != nil {
		if strict {
			return fmt.Errorf("failed to check for tunnel %s: %w", identity, err)
		}
		r.logf("⚠ Warning: failed to check for tunnel %s: %v", identity, err)
	}

	if tunnel != nil {
		r.logf("Deleting tunnel %s", identity)
		if err := r.daemon.CleanupConnections(ctx, identity); err != nil {
			r.logf("⚠ Warning: %v", err)
		}
		if err := r.daemon.Delete(ctx, identity); err != nil {
			r.logf("⚠ Warning: %v", err)
		}

		err := poll.Until(ctx, r.settings.PollInterval, r.settings.ConvergenceTimeout, func(ctx context.Context) (bool, error) {
			t, err := r.daemon.Find(ctx, identity)
			return err == nil && t == nil, nil
		})
		if err != nil {
			err = convergenceError(fmt.Sprintf("tunnel %s", identity), err)
			if strict {
				return err
			}
			r.logf("⚠ Warning: %v", err)
		} else {
			r.logf("✓ Tunnel removed")
		}
	}

	// Always re-fetched, never cached: an external actor may have replaced
	// the record since the last read.
	record, err := r.dns.FindRecord(ctx, zone.ID, fqdn)
	if err != nil {
		if strict {
			return fmt.Errorf("failed to check for dns record %s: %w", fqdn, err)
		}
		r.logf("⚠ Warning: failed to check for dns record %s: %v", fqdn, err)
	}

	if record != nil {
		r.logf("Deleting DNS record %s", fqdn)
		if err := r.dns.DeleteRecord(ctx, zone.ID, record.ID); err != nil {
			r.logf("⚠ Warning: %v", err)
		}

		err := poll.Until(ctx, r.settings.PollInterval, r.settings.ConvergenceTimeout, func(ctx context.Context) (bool, error) {
			rec, err := r.dns.FindRecord(ctx, zone.ID, fqdn)
			return err == nil && rec == nil, nil
		})
		if err != nil {
			err = convergenceError(fmt.Sprintf("dns record %s", fqdn), err)
			if strict {
				return err
			}
			r.logf("⚠ Warning: %v", err)
		} else {
			r.logf("✓ DNS record removed")
		}
	}

	if tunnel == nil && record == nil {
		r.logf("✓ Nothing to remove for %s", fqdn)
	}

	return nil
}
