package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TokenEnvVar is the environment variable supplying the Cloudflare API token
const TokenEnvVar = "CLOUDFLARE_API_TOKEN"

// Load reads and parses a settings file from the given path
func Load(path string) (*FileConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader reads and parses a settings file from an io.Reader
func LoadFromReader(r io.Reader) (*FileConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &fc, nil
}

// Resolve builds runtime Settings from the optional settings file at path,
// falling back to defaults for anything the file omits. A missing file is not
// an error; an unreadable or invalid one is. The API token comes from the
// environment, never from the file.
func Resolve(path string) (*Settings, error) {
	fc := &FileConfig{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			fc = loaded
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	cloudflaredDir := fc.CloudflaredDir
	if cloudflaredDir == "" {
		dir, err := GetCloudflaredDir()
		if err != nil {
			return nil, err
		}
		cloudflaredDir = dir
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		APIToken:           os.Getenv(TokenEnvVar),
		CloudflaredBinary:  fc.CloudflaredBinary,
		CloudflaredDir:     cloudflaredDir,
		ConfigDir:          configDir,
		ConvergenceTimeout: DefaultConvergenceTimeout,
		PollInterval:       DefaultPollInterval,
	}

	if s.CloudflaredBinary == "" {
		s.CloudflaredBinary = DefaultCloudflaredBinary
	}

	if fc.ConvergenceTimeout != "" {
		s.ConvergenceTimeout, _ = time.ParseDuration(fc.ConvergenceTimeout)
	}

	if fc.PollInterval != "" {
		s.PollInterval, _ = time.ParseDuration(fc.PollInterval)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return s, nil
}
