package cloudflared

import "time"

// Tunnel is a daemon-managed tunnel as reported by `cloudflared tunnel list`
type Tunnel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Handle references a tunnel created by this process, including the
// credentials file cloudflared wrote for it
type Handle struct {
	ID              string
	Name            string
	CredentialsFile string
}
