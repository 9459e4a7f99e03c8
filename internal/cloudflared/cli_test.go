package cloudflared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTunnelList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name:  "two tunnels",
			input: `[{"id":"aaa","name":"tunnel_api_example_com","created_at":"2024-05-01T10:00:00Z"},{"id":"bbb","name":"tunnel_dev_example_com","created_at":"2024-05-02T10:00:00Z"}]`,
			want:  2,
		},
		{
			name:  "empty list",
			input: `[]`,
			want:  0,
		},
		{
			name:  "empty output",
			input: "",
			want:  0,
		},
		{
			name:  "whitespace only",
			input: "\n",
			want:  0,
		},
		{
			name:    "garbage",
			input:   "error: something",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tunnels, err := ParseTunnelList([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tunnels, tt.want)
		})
	}

	t.Run("fields decoded", func(t *testing.T) {
		tunnels, err := ParseTunnelList([]byte(`[{"id":"aaa-bbb","name":"tunnel_api_example_com","created_at":"2024-05-01T10:00:00Z"}]`))
		require.NoError(t, err)
		require.Len(t, tunnels, 1)
		assert.Equal(t, "aaa-bbb", tunnels[0].ID)
		assert.Equal(t, "tunnel_api_example_com", tunnels[0].Name)
		assert.Equal(t, 2024, tunnels[0].CreatedAt.Year())
	})
}

func TestCheckOriginCert(t *testing.T) {
	t.Run("cert present", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pem"), []byte("dummy"), 0600))

		cli := New("cloudflared", dir)
		assert.NoError(t, cli.CheckOriginCert())
	})

	t.Run("cert absent", func(t *testing.T) {
		cli := New("cloudflared", t.TempDir())
		err := cli.CheckOriginCert()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cloudflared tunnel login")
	})
}

func TestOriginCertPath(t *testing.T) {
	cli := New("cloudflared", "/home/user/.cloudflared")
	assert.Equal(t, "/home/user/.cloudflared/cert.pem", cli.OriginCertPath())
}
