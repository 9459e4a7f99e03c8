package cloudflare

// Zone is a DNS provider management unit for a registrable domain
type Zone struct {
	ID   string
	Name string
}

// Record is a single DNS record within a zone
type Record struct {
	ID      string
	Type    string
	Name    string
	Content string
	Proxied bool
}
