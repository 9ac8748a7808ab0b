package stubdns

import (
	"net/netip"
)

// resolvConfPath is the platform resolver configuration file. It is a
// variable so tests can point it at fixture files.
var resolvConfPath = "/etc/resolv.conf"

// systemConfig is the OS-level resolver configuration.
type systemConfig struct {
	servers []netip.Addr
	search  []string
}

// SystemDNSServers returns the nameservers configured by the operating
// system, in configuration order. An empty list with a nil error means the
// platform has no servers configured; callers should fall back to their
// own defaults. A read failure satisfies errors.Is(err, ErrSystemConfig).
func SystemDNSServers() ([]netip.Addr, error) {
	cfg, err := readSystemConfig()
	if err != nil {
		return nil, err
	}
	return cfg.servers, nil
}
