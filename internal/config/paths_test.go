package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDir(t *testing.T) {
	t.Run("environment override", func(t *testing.T) {
		t.Setenv("CFTUN_CONFIG_DIR", "/custom/cftun")
		dir, err := GetConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/custom/cftun", dir)
	})

	t.Run("defaults to home", func(t *testing.T) {
		t.Setenv("CFTUN_CONFIG_DIR", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		dir, err := GetConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, DefaultConfigDir), dir)
	})
}

func TestGetCloudflaredDir(t *testing.T) {
	t.Run("environment override", func(t *testing.T) {
		t.Setenv("CFTUN_CLOUDFLARED_DIR", "/custom/cloudflared")
		dir, err := GetCloudflaredDir()
		require.NoError(t, err)
		assert.Equal(t, "/custom/cloudflared", dir)
	})

	t.Run("defaults to home", func(t *testing.T) {
		t.Setenv("CFTUN_CLOUDFLARED_DIR", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		dir, err := GetCloudflaredDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, DefaultCloudflaredDir), dir)
	})
}

func TestEnsureConfigDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "cftun")
	t.Setenv("CFTUN_CONFIG_DIR", target)

	dir, err := EnsureConfigDir()
	require.NoError(t, err)
	assert.Equal(t, target, dir)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOriginCertPath(t *testing.T) {
	assert.Equal(t, "/home/user/.cloudflared/cert.pem", OriginCertPath("/home/user/.cloudflared"))
}
