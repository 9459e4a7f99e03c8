package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultConfigDir is the default directory name for cftun state
	DefaultConfigDir = ".cftun"
	// DefaultConfigName is the default settings file name
	DefaultConfigName = "config.yaml"
	// DefaultCloudflaredDir is the cloudflared state directory name
	DefaultCloudflaredDir = ".cloudflared"
	// OriginCertName is the origin certificate cloudflared writes after login
	OriginCertName = "cert.pem"
)

// GetConfigDir returns the cftun configuration directory path
// Defaults to ~/.cftun/ unless overridden by environment
func GetConfigDir() (string, error) {
	if dir := os.Getenv("CFTUN_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// GetCloudflaredDir returns the cloudflared state directory path, where the
// origin certificate and per-tunnel credentials files live
// Defaults to ~/.cloudflared/ unless overridden by environment
func GetCloudflaredDir() (string, error) {
	if dir := os.Getenv("CFTUN_CLOUDFLARED_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultCloudflaredDir), nil
}

// DefaultConfigPath returns the default settings file path
// Returns an empty string if the home directory cannot be determined
func DefaultConfigPath() string {
	configDir, err := GetConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, DefaultConfigName)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return configDir, nil
}

// OriginCertPath returns the path where the cloudflared origin certificate is
// expected. The certificate is created by `cloudflared tunnel login`.
func OriginCertPath(cloudflaredDir string) string {
	return filepath.Join(cloudflaredDir, OriginCertName)
}
