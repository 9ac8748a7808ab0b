package stubdns

import (
	"context"
	"net/netip"

	"github.com/miekg/dns"
)

// Resolver looks up IP addresses for host names.
type Resolver interface {
	// LookupNetIP looks up host and returns its IP addresses of the type
	// specified by network, which must be one of "ip", "ip4" or "ip6".
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)

	// LookupHost looks up host and returns its addresses as strings.
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Cacher provides DNS response caching
type Cacher interface {
	// DnsSet may make a copy of msg and set its dns.Msg.Zero to true and return it later with DnsGet.
	DnsSet(msg *dns.Msg)

	// DnsGet returns the cached dns.Msg for the given qname and qtype, or nil.
	// Do not modify the returned msg. Make a copy of it if needed.
	//
	// dns.Msg.Zero must be set to true to indicate response is served from cache.
	DnsGet(qname string, qtype uint16) *dns.Msg
}
