// Package auth stores the Cloudflare API token in the OS keyring, with a
// restricted-permission file fallback for headless hosts.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/solidsilver/cftun/internal/config"
)

const (
	// KeyringService is the service name used in the OS keyring
	KeyringService = "cftun"
	// KeyringUser is the account name for the API token
	KeyringUser = "cloudflare-api-token"
	// FallbackFileName is the filename for fallback file storage
	FallbackFileName = "token"
)

// StoreToken stores the API token in the OS keyring
// Falls back to file storage if keyring is unavailable
func StoreToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	err := keyring.Set(KeyringService, KeyringUser, token)
	if err == nil {
		return nil
	}

	return storeTokenInFile(token)
}

// LoadToken retrieves the API token from the OS keyring
// Falls back to file storage if keyring is unavailable
func LoadToken() (string, error) {
	token, err := keyring.Get(KeyringService, KeyringUser)
	if err == nil {
		return token, nil
	}

	return loadTokenFromFile()
}

// ClearToken removes the API token from storage
func ClearToken() error {
	keyringErr := keyring.Delete(KeyringService, KeyringUser)

	// Also try the file, in case the token was stored there
	fileErr := deleteTokenFile()

	if keyringErr != nil && fileErr != nil {
		return fmt.Errorf("failed to clear token from keyring (%v) and file (%v)", keyringErr, fileErr)
	}

	return nil
}

// ResolveToken returns the API token to use: the environment variable wins,
// stored credentials are the fallback. Returns "" when neither is set.
func ResolveToken() string {
	if token := os.Getenv(config.TokenEnvVar); token != "" {
		return token
	}

	token, err := LoadToken()
	if err != nil {
		return ""
	}
	return token
}

func getTokenFilePath() (string, error) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FallbackFileName), nil
}

func storeTokenInFile(token string) error {
	tokenPath, err := getTokenFilePath()
	if err != nil {
		return fmt.Errorf("failed to get token file path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(tokenPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(tokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

func loadTokenFromFile() (string, error) {
	tokenPath, err := getTokenFilePath()
	if err != nil {
		return "", fmt.Errorf("failed to get token file path: %w", err)
	}

	data, err := os.ReadFile(tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no stored token found")
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func deleteTokenFile() error {
	tokenPath, err := getTokenFilePath()
	if err != nil {
		return fmt.Errorf("failed to get token file path: %w", err)
	}

	if err := os.Remove(tokenPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no token file to delete")
		}
		return fmt.Errorf("failed to delete token file: %w", err)
	}

	return nil
}
