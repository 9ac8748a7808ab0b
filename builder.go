package stubdns

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"slices"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/proxy"
)

// defaultNS is used when the system configuration reads fine but names no
// servers at all.
var defaultNS = []netip.Addr{
	netip.MustParseAddr("127.0.0.1"),
	netip.MustParseAddr("::1"),
}

// Builder accumulates resolver configuration and freezes it into an
// immutable Stub with Build. All configuration methods return the builder
// for chaining; input errors are remembered and reported by Build.
//
// The zero Builder is not valid, use NewBuilder.
type Builder struct {
	useHostsFile   bool
	hostsPath      string
	servers        []netip.AddrPort
	search         []string
	timeout        time.Duration
	attempts       int
	dialer         proxy.ContextDialer
	cache          Cacher
	rateLimiter    <-chan struct{}
	logw           io.Writer
	orderByLatency bool
	err            error
}

// NewBuilder returns a Builder with the hosts file enabled.
func NewBuilder() *Builder {
	return &Builder{useHostsFile: true}
}

// UseHostsFile controls whether lookups consult the hosts file before any
// network I/O.
func (b *Builder) UseHostsFile(enable bool) *Builder {
	b.useHostsFile = enable
	return b
}

// HostsFilePath overrides the platform hosts file location.
func (b *Builder) HostsFilePath(path string) *Builder {
	b.hostsPath = path
	return b
}

// UseNameserver replaces the nameserver list. Each address is either a
// plain IP ("8.8.8.8", "2001:4860:4860::8888") or an IP with port
// ("8.8.8.8:53", "[::1]:5353"); plain IPs get port 53.
func (b *Builder) UseNameserver(addrs ...string) *Builder {
	var servers []netip.AddrPort
	for _, a := range addrs {
		ap, err := netip.ParseAddrPort(a)
		if err != nil {
			var addr netip.Addr
			if addr, err = netip.ParseAddr(a); err != nil {
				if b.err == nil {
					b.err = fmt.Errorf("invalid nameserver address %q", a)
				}
				continue
			}
			ap = netip.AddrPortFrom(addr.Unmap(), dnsPort)
		}
		servers = append(servers, ap)
	}
	b.servers = servers
	return b
}

// SearchDomains sets the suffixes appended to unrooted names. When unset
// and the nameservers come from system discovery, the system search list
// is used.
func (b *Builder) SearchDomains(domains ...string) *Builder {
	b.search = slices.Clone(domains)
	return b
}

// Timeout sets the deadline for a single query attempt against one
// nameserver. Defaults to DefaultTimeout.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

// MaxRetries sets how many passes are made over the full nameserver list
// before a lookup fails with ErrNoResponse. Zero means DefaultAttempts.
func (b *Builder) MaxRetries(n int) *Builder {
	b.attempts = n
	return b
}

// WithDialer sets the ContextDialer used to reach nameservers.
// Passing nil will use a net.Dialer.
func (b *Builder) WithDialer(dialer proxy.ContextDialer) *Builder {
	b.dialer = dialer
	return b
}

// WithCache sets the response cache. Passing nil disables caching.
func (b *Builder) WithCache(cache Cacher) *Builder {
	b.cache = cache
	return b
}

// WithRateLimiter makes every query attempt wait for a tick from ch
// before sending. Passing nil means no rate limiting.
func (b *Builder) WithRateLimiter(ch <-chan struct{}) *Builder {
	b.rateLimiter = ch
	return b
}

// DebugLog sets the default diagnostic log writer for the resolver.
func (b *Builder) DebugLog(w io.Writer) *Builder {
	b.logw = w
	return b
}

// OrderByLatency probes the nameservers once during Build and orders the
// frozen list by measured round-trip time.
func (b *Builder) OrderByLatency(enable bool) *Builder {
	b.orderByLatency = enable
	return b
}

// Build validates the configuration and returns an immutable Stub.
//
// If no nameservers were supplied it reads the system resolver
// configuration; it fails with an error satisfying
// errors.Is(err, ErrNoNameservers) only when that leaves the server list
// empty and the hosts file is disabled too.
func (b *Builder) Build() (*Stub, error) {
	if b.err != nil {
		return nil, b.err
	}

	timeout := b.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := b.attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	dialer := b.dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	servers := slices.Clone(b.servers)
	search := slices.Clone(b.search)
	if len(servers) == 0 {
		cfg, err := readSystemConfig()
		if err != nil {
			if !b.useHostsFile {
				return nil, errors.Join(ErrNoNameservers, err)
			}
		} else {
			for _, addr := range cfg.servers {
				servers = append(servers, netip.AddrPortFrom(addr, dnsPort))
			}
			if len(servers) == 0 {
				for _, addr := range defaultNS {
					servers = append(servers, netip.AddrPortFrom(addr, dnsPort))
				}
			}
			if search == nil {
				search = cfg.search
			}
		}
	}
	if len(servers) == 0 && !b.useHostsFile {
		return nil, ErrNoNameservers
	}

	for i, domain := range search {
		search[i] = dns.CanonicalName(domain)
	}

	var hosts *hostsFile
	if b.useHostsFile {
		path := b.hostsPath
		if path == "" {
			path = defaultHostsPath()
		}
		var err error
		if hosts, err = loadHostsFile(path); err != nil {
			return nil, err
		}
	}

	if b.orderByLatency && len(servers) > 1 {
		servers = orderServersByLatency(dialer, servers, timeout)
	}

	return &Stub{
		ContextDialer:    dialer,
		Cacher:           b.cache,
		DefaultLogWriter: b.logw,
		timeout:          timeout,
		attempts:         attempts,
		servers:          servers,
		search:           search,
		hosts:            hosts,
		rateLimiter:      b.rateLimiter,
		clicookie:        makeCookie(),
		srvcookies:       make(map[netip.Addr]srvCookie),
	}, nil
}
