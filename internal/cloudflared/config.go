package cloudflared

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the generated per-domain tunnel configuration artifact. It is
// regenerated on every invocation; there are no merge semantics.
type Config struct {
	URL             string `yaml:"url"`
	Tunnel          string `yaml:"tunnel"`
	CredentialsFile string `yaml:"credentials-file"`
}

// NewConfig builds the config artifact for a created tunnel. The handle must
// carry a non-empty id: the config references the tunnel and its credentials,
// so it cannot exist before the tunnel does.
func NewConfig(localURL string, handle Handle) (Config, error) {
	if handle.ID == "" {
		return Config{}, fmt.Errorf("cannot build tunnel config without a tunnel id")
	}
	if handle.CredentialsFile == "" {
		return Config{}, fmt.Errorf("cannot build tunnel config without a credentials file")
	}
	if localURL == "" {
		return Config{}, fmt.Errorf("cannot build tunnel config without a local url")
	}

	return Config{
		URL:             localURL,
		Tunnel:          handle.ID,
		CredentialsFile: handle.CredentialsFile,
	}, nil
}

// Marshal renders the artifact. Output is byte-for-byte reproducible for the
// same inputs: field order is fixed and yaml encoding is deterministic.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tunnel config: %w", err)
	}
	return data, nil
}

// Write materializes the artifact at path, overwriting unconditionally
func (c Config) Write(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write tunnel config %s: %w", path, err)
	}

	return nil
}
