package config

import (
	"fmt"
	"time"
)

// Default reconciliation timings. The convergence timeout bounds how long a
// delete is given to become visible to subsequent reads.
const (
	DefaultConvergenceTimeout = 60 * time.Second
	DefaultPollInterval       = 2 * time.Second
)

// DefaultCloudflaredBinary is the daemon binary looked up on PATH when no
// explicit path is configured.
const DefaultCloudflaredBinary = "cloudflared"

// Settings is the resolved runtime configuration handed to the reconciler.
// All fields are populated before use; nothing reads the environment after
// this struct is built.
type Settings struct {
	// APIToken is the Cloudflare API bearer token
	APIToken string
	// CloudflaredBinary is the daemon binary path or name
	CloudflaredBinary string
	// CloudflaredDir holds the origin certificate and tunnel credentials
	CloudflaredDir string
	// ConfigDir holds generated per-domain tunnel config files
	ConfigDir string
	// ConvergenceTimeout bounds post-delete existence waits
	ConvergenceTimeout time.Duration
	// PollInterval is the fixed existence-poll re-check interval
	PollInterval time.Duration
}

// Validate performs validation on the Settings struct
func (s *Settings) Validate() error {
	if s.CloudflaredBinary == "" {
		return fmt.Errorf("cloudflared binary is required")
	}

	if s.CloudflaredDir == "" {
		return fmt.Errorf("cloudflared directory is required")
	}

	if s.ConfigDir == "" {
		return fmt.Errorf("config directory is required")
	}

	if s.ConvergenceTimeout <= 0 {
		return fmt.Errorf("convergence timeout must be positive")
	}

	if s.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if s.PollInterval > s.ConvergenceTimeout {
		return fmt.Errorf("poll interval %s exceeds convergence timeout %s", s.PollInterval, s.ConvergenceTimeout)
	}

	return nil
}

// FileConfig is the optional on-disk settings file (~/.cftun/config.yaml).
// Every field is optional; absent values fall back to defaults.
type FileConfig struct {
	CloudflaredBinary  string `yaml:"cloudflared_binary,omitempty"`
	CloudflaredDir     string `yaml:"cloudflared_dir,omitempty"`
	ConvergenceTimeout string `yaml:"convergence_timeout,omitempty"`
	PollInterval       string `yaml:"poll_interval,omitempty"`
}

// Validate performs validation on the FileConfig struct
func (f *FileConfig) Validate() error {
	if f.ConvergenceTimeout != "" {
		d, err := time.ParseDuration(f.ConvergenceTimeout)
		if err != nil {
			return fmt.Errorf("invalid convergence_timeout %q: %w", f.ConvergenceTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("convergence_timeout must be positive")
		}
	}

	if f.PollInterval != "" {
		d, err := time.ParseDuration(f.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval %q: %w", f.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive")
		}
	}

	return nil
}
