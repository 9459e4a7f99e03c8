package cloudflared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrConflict is returned by Create when a tunnel with the requested name
// already exists. Callers must delete the prior tunnel first.
var ErrConflict = errors.New("tunnel name already exists")

// CLI drives a local cloudflared binary, the daemon's control surface.
// Dir is the cloudflared state directory holding the origin certificate and
// per-tunnel credentials files.
type CLI struct {
	Binary string
	Dir    string
}

// New creates a daemon wrapper for the given binary and state directory
func New(binary, dir string) *CLI {
	return &CLI{Binary: binary, Dir: dir}
}

// OriginCertPath returns where the origin certificate is expected
func (c *CLI) OriginCertPath() string {
	return filepath.Join(c.Dir, "cert.pem")
}

// CheckOriginCert verifies the origin certificate exists. The certificate is
// created by `cloudflared tunnel login`.
func (c *CLI) CheckOriginCert() error {
	certPath := c.OriginCertPath()
	if _, err := os.Stat(certPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("origin certificate not found at %s (run 'cloudflared tunnel login' first)", certPath)
		}
		return fmt.Errorf("failed to stat origin certificate %s: %w", certPath, err)
	}
	return nil
}

// Version runs the daemon's version query, which doubles as the
// daemon-present precondition check
func (c *CLI) Version(ctx context.Context) (string, error) {
	out, err := c.command(ctx, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("cloudflared not available (is %s on PATH?): %w", c.Binary, err)
	}
	version := strings.TrimSpace(string(out))
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return version, nil
}

// List returns all tunnels known to the daemon, deleted ones excluded
func (c *CLI) List(ctx context.Context) ([]Tunnel, error) {
	out, err := c.tunnelCommand(ctx, "list", "--output", "json").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list tunnels: %w", commandError(err))
	}
	return ParseTunnelList(out)
}

// ParseTunnelList decodes `cloudflared tunnel list --output json` output
func ParseTunnelList(data []byte) ([]Tunnel, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var tunnels []Tunnel
	if err := json.Unmarshal(data, &tunnels); err != nil {
		return nil, fmt.Errorf("failed to parse tunnel list: %w", err)
	}
	return tunnels, nil
}

// Find looks up a tunnel by exact name. Returns (nil, nil) when absent.
func (c *CLI) Find(ctx context.Context, name string) (*Tunnel, error) {
	tunnels, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tunnels {
		if tunnels[i].Name == name {
			return &tunnels[i], nil
		}
	}
	return nil, nil
}

// Create creates a tunnel under the given name and captures its handle.
// Fails with ErrConflict when the name is taken; the caller is expected to
// have cleaned up any prior occupant.
func (c *CLI) Create(ctx context.Context, name string) (Handle, error) {
	out, err := c.tunnelCommand(ctx, "create", name).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "already exists") {
			return Handle{}, fmt.Errorf("%w: %s", ErrConflict, name)
		}
		return Handle{}, fmt.Errorf("failed to create tunnel %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}

	// The create output is informational; the id comes from a list query so
	// the handle matches what the daemon actually recorded.
	tunnel, err := c.Find(ctx, name)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to capture id of created tunnel %s: %w", name, err)
	}
	if tunnel == nil || tunnel.ID == "" {
		return Handle{}, fmt.Errorf("failed to capture id of created tunnel %s: not visible in tunnel list", name)
	}

	return Handle{
		ID:              tunnel.ID,
		Name:            tunnel.Name,
		CredentialsFile: filepath.Join(c.Dir, tunnel.ID+".json"),
	}, nil
}

// Delete removes a tunnel by name, forced
func (c *CLI) Delete(ctx context.Context, name string) error {
	out, err := c.tunnelCommand(ctx, "delete", "-f", name).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to delete tunnel %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CleanupConnections drops stale active connections so a delete can proceed
func (c *CLI) CleanupConnections(ctx context.Context, name string) error {
	out, err := c.tunnelCommand(ctx, "cleanup", name).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to cleanup tunnel connections for %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// RouteDNS creates the CNAME binding fqdn to the named tunnel
func (c *CLI) RouteDNS(ctx context.Context, name, fqdn string) error {
	out, err := c.tunnelCommand(ctx, "route", "dns", name, fqdn).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to route dns %s -> tunnel %s: %w: %s", fqdn, name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Run starts the tunnel in the foreground and blocks until the daemon exits
// or ctx is cancelled. Cancellation sends an interrupt so the daemon can
// drain connections before it is killed.
func (c *CLI) Run(ctx context.Context, configPath string) error {
	cmd := c.command(ctx, "tunnel", "--config", configPath, "run")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 10 * time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Interrupted on purpose; not a daemon failure
			return nil
		}
		return fmt.Errorf("cloudflared exited: %w", err)
	}
	return nil
}

func (c *CLI) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Env = append(os.Environ(), "TUNNEL_ORIGIN_CERT="+c.OriginCertPath())
	return cmd
}

func (c *CLI) tunnelCommand(ctx context.Context, args ...string) *exec.Cmd {
	return c.command(ctx, append([]string{"tunnel"}, args...)...)
}

// commandError folds stderr into exec errors from Output()
func commandError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
