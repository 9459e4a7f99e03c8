package reconcile

import (
	"path/filepath"
	"strings"
)

// Identity derives the deterministic tunnel name for a domain. It is the
// sole key used to correlate a domain with its tunnel across runs, so the
// mapping must never change: lowercase, trailing dot dropped, every
// non-alphanumeric character folded to an underscore, "tunnel_" prefix.
func Identity(domain string) string {
	name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))

	var b strings.Builder
	b.Grow(len(name) + len("tunnel_"))
	b.WriteString("tunnel_")
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ConfigPath returns the deterministic per-domain path for the generated
// tunnel config artifact
func ConfigPath(configDir, domain string) string {
	return filepath.Join(configDir, Identity(domain)+".yml")
}
