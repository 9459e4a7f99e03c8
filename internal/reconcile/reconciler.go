// Package reconcile implements the orchestration state machine that brings a
// (tunnel, DNS record, local config) triple into the desired state despite
// partial prior state and eventual-consistency delays at the provider.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/cloudflared"
	"github.com/solidsilver/cftun/internal/config"
	"github.com/solidsilver/cftun/internal/poll"
)

// DNSProvider is the DNS half of the provider surface, satisfied by
// cloudflare.Client
type DNSProvider interface {
	ResolveZone(ctx context.Context, domain string) (cloudflare.Zone, error)
	FindRecord(ctx context.Context, zoneID, fqdn string) (*cloudflare.Record, error)
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// Daemon is the tunnel daemon control surface, satisfied by cloudflared.CLI
type Daemon interface {
	Version(ctx context.Context) (string, error)
	CheckOriginCert() error
	Find(ctx context.Context, name string) (*cloudflared.Tunnel, error)
	Create(ctx context.Context, name string) (cloudflared.Handle, error)
	Delete(ctx context.Context, name string) error
	CleanupConnections(ctx context.Context, name string) error
	RouteDNS(ctx context.Context, name, fqdn string) error
	Run(ctx context.Context, configPath string) error
}

// Reconciler sequences zone lookup, conflict cleanup, tunnel creation,
// config materialization, DNS route creation, tunnel execution, and
// guaranteed-on-exit teardown. It holds no shared state; two concurrent runs
// for the same domain race on provider state and are not made safe here.
type Reconciler struct {
	dns      DNSProvider
	daemon   Daemon
	settings *config.Settings
	out      io.Writer
}

// New creates a Reconciler. Settings must already be validated.
func New(dns DNSProvider, daemon Daemon, settings *config.Settings) *Reconciler {
	return &Reconciler{
		dns:      dns,
		daemon:   daemon,
		settings: settings,
		out:      os.Stdout,
	}
}

func (r *Reconciler) logf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Preflight verifies every prerequisite that must hold before any resource
// is touched: credential present, daemon on PATH, origin certificate issued.
func (r *Reconciler) Preflight(ctx context.Context) error {
	if r.settings.APIToken == "" {
		return &PreconditionError{
			Message: fmt.Sprintf("missing Cloudflare API token (set %s or run 'cftun auth login')", config.TokenEnvVar),
		}
	}

	version, err := r.daemon.Version(ctx)
	if err != nil {
		return &PreconditionError{Message: "tunnel daemon not available", Err: err}
	}
	r.logf("✓ Found %s", version)

	if err := r.daemon.CheckOriginCert(); err != nil {
		return &PreconditionError{Message: "origin certificate missing", Err: err}
	}

	return nil
}

// Provision drives the full provisioning sequence for domain and blocks in
// the run phase until the daemon exits or ctx is cancelled. Once a tunnel
// has been created, teardown is guaranteed to execute exactly once before
// Provision returns, on every path including cancellation.
func (r *Reconciler) Provision(ctx context.Context, domain string, port int) error {
	fqdn := domain
	identity := Identity(domain)
	localURL := fmt.Sprintf("http://localhost:%d", port)

	zone, err := r.dns.ResolveZone(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to resolve zone for %s: %w", domain, err)
	}
	r.logf("✓ Zone resolved: %s (%s)", zone.Name, zone.ID)

	if err := r.clean(ctx, zone, identity, fqdn); err != nil {
		return err
	}

	handle, err := r.daemon.Create(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to create tunnel: %w", err)
	}
	r.logf("✓ Tunnel created: %s (%s)", identity, handle.ID)

	defer func() {
		r.logf("Tearing down %s...", domain)
		if tdErr := r.teardown(zone, identity, fqdn, false); tdErr != nil {
			r.logf("⚠ Warning: teardown incomplete: %v", tdErr)
		}
	}()

	cfg, err := cloudflared.NewConfig(localURL, handle)
	if err != nil {
		return err
	}
	configPath := ConfigPath(r.settings.ConfigDir, domain)
	if err := cfg.Write(configPath); err != nil {
		return err
	}
	r.logf("✓ Config written: %s", configPath)

	if err := r.daemon.RouteDNS(ctx, identity, fqdn); err != nil {
		return fmt.Errorf("failed to create dns route: %w", err)
	}
	r.logf("✓ DNS route created: %s -> %s", fqdn, identity)

	r.logf("Starting tunnel for %s -> %s (Ctrl-C to stop)", fqdn, localURL)
	if runErr := r.daemon.Run(ctx, configPath); runErr != nil {
		// The daemon exiting, by any means, is the normal end of the run
		// phase, not an escalation condition.
		r.logf("⚠ Tunnel exited: %v", runErr)
	}

	return nil
}

// clean enforces the pre-creation invariant: at most zero live tunnels and
// zero live DNS records for this identity/fqdn. Any prior occupant is
// deleted and its removal awaited; an ambiguous outcome is fatal because
// creating on top of it would be worse.
func (r *Reconciler) clean(ctx context.Context, zone cloudflare.Zone, identity, fqdn string) error {
	tunnel, err := r.daemon.Find(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to check for existing tunnel: %w", err)
	}

	record, err := r.dns.FindRecord(ctx, zone.ID, fqdn)
	if err != nil {
		return fmt.Errorf("failed to check for existing dns record: %w", err)
	}

	if tunnel == nil && record == nil {
		return nil
	}

	if tunnel != nil {
		r.logf("Found existing tunnel %s, deleting", identity)
		if err := r.daemon.CleanupConnections(ctx, identity); err != nil {
			r.logf("⚠ Warning: %v", err)
		}
		if err := r.daemon.Delete(ctx, identity); err != nil {
			r.logf("⚠ Warning: %v", err)
		}
	}

	if record != nil {
		r.logf("Found existing DNS record %s, deleting", fqdn)
		if err := r.dns.DeleteRecord(ctx, zone.ID, record.ID); err != nil {
			r.logf("⚠ Warning: %v", err)
		}
	}

	r.logf("Waiting for prior resources to be removed...")
	err = poll.Until(ctx, r.settings.PollInterval, r.settings.ConvergenceTimeout, func(ctx context.Context) (bool, error) {
		return r.bothAbsent(ctx, zone, identity, fqdn), nil
	})
	if err != nil {
		return convergenceError(fmt.Sprintf("prior tunnel %s / record %s", identity, fqdn), err)
	}

	// Re-check explicitly before creating on top: a resource reappearing
	// between the last poll and now (external actor, read-replica lag)
	// must fail here, not surface as a create conflict later.
	tunnel, err = r.daemon.Find(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to re-check tunnel after cleanup wait: %w", err)
	}
	record, err = r.dns.FindRecord(ctx, zone.ID, fqdn)
	if err != nil {
		return fmt.Errorf("failed to re-check dns record after cleanup wait: %w", err)
	}
	if tunnel != nil || record != nil {
		return fmt.Errorf("conflicting resources still present after cleanup wait (tunnel present: %v, record present: %v)", tunnel != nil, record != nil)
	}

	r.logf("✓ Prior resources removed")
	return nil
}

// bothAbsent reports whether neither the tunnel nor the record is visible.
// Lookup errors read as "still present" so a transient provider failure
// re-checks on the next tick instead of aborting the wait.
func (r *Reconciler) bothAbsent(ctx context.Context, zone cloudflare.Zone, identity, fqdn string) bool {
	tunnel, err := r.daemon.Find(ctx, identity)
	if err != nil || tunnel != nil {
		return false
	}
	record, err := r.dns.FindRecord(ctx, zone.ID, fqdn)
	if err != nil || record != nil {
		return false
	}
	return true
}
