package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/solidsilver/cftun/internal/cloudflare"
	"github.com/solidsilver/cftun/internal/cloudflared"
)

// recorder collects the mutation sequence across both fakes so tests can
// assert ordering and exactly-once behavior
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type fakeDNS struct {
	mu      sync.Mutex
	rec     *recorder
	zone    cloudflare.Zone
	zoneErr error
	records map[string]*cloudflare.Record
	findErr error
	// deleteStalls makes deletes never take effect, simulating a provider
	// that never reflects the deletion
	deleteStalls bool
}

func newFakeDNS(rec *recorder) *fakeDNS {
	return &fakeDNS{
		rec:     rec,
		zone:    cloudflare.Zone{ID: "zone-1", Name: "example.com"},
		records: make(map[string]*cloudflare.Record),
	}
}

func (f *fakeDNS) ResolveZone(ctx context.Context, domain string) (cloudflare.Zone, error) {
	if f.zoneErr != nil {
		return cloudflare.Zone{}, f.zoneErr
	}
	return f.zone, nil
}

func (f *fakeDNS) FindRecord(ctx context.Context, zoneID, fqdn string) (*cloudflare.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records[fqdn], nil
}

func (f *fakeDNS) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.add("dns.delete")
	if f.deleteStalls {
		return nil
	}
	for fqdn, r := range f.records {
		if r.ID == recordID {
			delete(f.records, fqdn)
		}
	}
	return nil
}

func (f *fakeDNS) seed(fqdn, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[fqdn] = &cloudflare.Record{ID: id, Type: "CNAME", Name: fqdn, Content: "old.cfargotunnel.com"}
}

func (f *fakeDNS) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeDaemon struct {
	mu      sync.Mutex
	rec     *recorder
	dns     *fakeDNS
	tunnels map[string]cloudflared.Tunnel
	nextID  int

	versionErr error
	certErr    error
	createErr  error
	routeErr   error
	findErr    error
	// deleteStalls makes tunnel deletes never take effect
	deleteStalls bool

	runFunc func(ctx context.Context, configPath string) error
}

func newFakeDaemon(rec *recorder, dns *fakeDNS) *fakeDaemon {
	return &fakeDaemon{
		rec:     rec,
		dns:     dns,
		tunnels: make(map[string]cloudflared.Tunnel),
	}
}

func (f *fakeDaemon) Version(ctx context.Context) (string, error) {
	if f.versionErr != nil {
		return "", f.versionErr
	}
	return "cloudflared version 2024.5.0", nil
}

func (f *fakeDaemon) CheckOriginCert() error {
	return f.certErr
}

func (f *fakeDaemon) Find(ctx context.Context, name string) (*cloudflared.Tunnel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if t, ok := f.tunnels[name]; ok {
		return &t, nil
	}
	return nil, nil
}

func (f *fakeDaemon) Create(ctx context.Context, name string) (cloudflared.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.add("daemon.create")
	if f.createErr != nil {
		return cloudflared.Handle{}, f.createErr
	}
	if _, ok := f.tunnels[name]; ok {
		return cloudflared.Handle{}, fmt.Errorf("%w: %s", cloudflared.ErrConflict, name)
	}
	f.nextID++
	id := fmt.Sprintf("tid-%d", f.nextID)
	f.tunnels[name] = cloudflared.Tunnel{ID: id, Name: name}
	return cloudflared.Handle{
		ID:              id,
		Name:            name,
		CredentialsFile: "/tmp/creds/" + id + ".json",
	}, nil
}

func (f *fakeDaemon) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.add("daemon.delete")
	if f.deleteStalls {
		return nil
	}
	delete(f.tunnels, name)
	return nil
}

func (f *fakeDaemon) CleanupConnections(ctx context.Context, name string) error {
	f.rec.add("daemon.cleanup")
	return nil
}

func (f *fakeDaemon) RouteDNS(ctx context.Context, name, fqdn string) error {
	f.mu.Lock()
	tunnel, ok := f.tunnels[name]
	f.mu.Unlock()
	f.rec.add("daemon.route")
	if f.routeErr != nil {
		return f.routeErr
	}
	if !ok {
		return fmt.Errorf("tunnel %s not found", name)
	}
	// Routing creates the CNAME on the provider side
	f.dns.mu.Lock()
	f.dns.records[fqdn] = &cloudflare.Record{
		ID:      "rec-" + tunnel.ID,
		Type:    "CNAME",
		Name:    fqdn,
		Content: tunnel.ID + ".cfargotunnel.com",
		Proxied: true,
	}
	f.dns.mu.Unlock()
	return nil
}

func (f *fakeDaemon) Run(ctx context.Context, configPath string) error {
	f.rec.add("daemon.run")
	if f.runFunc != nil {
		return f.runFunc(ctx, configPath)
	}
	return nil
}

func (f *fakeDaemon) seed(name, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tunnels[name] = cloudflared.Tunnel{ID: id, Name: name}
}

func (f *fakeDaemon) tunnelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tunnels)
}
