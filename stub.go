package stubdns

import (
	"context"
	"io"
	"net/netip"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/proxy"
)

const (
	maxSrvCookies = 8192
	srvCookieTTL  = 24 * time.Hour
)

var (
	// DefaultTimeout bounds a single query attempt against one nameserver.
	DefaultTimeout = time.Second * 5
	// DefaultAttempts is the number of passes over the full nameserver list.
	DefaultAttempts = 2
)

var _ Resolver = (*Stub)(nil) // ensure we implement interface

// Stub is a forwarding DNS resolver client. It sends whole queries to a
// fixed, ordered list of nameservers and never recurses itself.
//
// A Stub is created by Builder.Build, is immutable afterwards and is safe
// for concurrent use; independent lookups do not interfere with each other.
type Stub struct {
	proxy.ContextDialer                 // (read-only) ContextDialer passed to Builder
	Cacher                              // (read-only) Cacher passed to Builder, may be nil
	DefaultLogWriter    io.Writer       // if not nil, write debug logs here unless overridden
	timeout             time.Duration   // (read-only) per-attempt deadline
	attempts            int             // (read-only) passes over the nameserver list
	servers             []netip.AddrPort
	search              []string
	hosts               *hostsFile      // nil when the hosts file is disabled
	rateLimiter         <-chan struct{} // (read-only) rate limiter passed to Builder

	mu         sync.Mutex
	clicookie  string
	srvcookies map[netip.Addr]srvCookie
}

// Servers returns a copy of the nameserver list in query order.
func (s *Stub) Servers() []netip.AddrPort {
	l := make([]netip.AddrPort, len(s.servers))
	copy(l, s.servers)
	return l
}

// Timeout returns the per-attempt deadline.
func (s *Stub) Timeout() time.Duration { return s.timeout }

// Attempts returns the number of passes made over the nameserver list
// before a lookup is considered exhausted.
func (s *Stub) Attempts() int { return s.attempts }

// Exchange sends a single-question query for qname and qtype through the
// normal retry pipeline and returns the first valid response. The hosts
// file is not consulted. Responses with NXDOMAIN are returned, not errors.
func (s *Stub) Exchange(ctx context.Context, qname string, qtype uint16) (*dns.Msg, error) {
	name, err := normalizeHostname(qname)
	if err != nil {
		return nil, err
	}
	q := s.newQuery(nil)
	return q.run(ctx, name, qtype)
}

func (s *Stub) newQuery(logw io.Writer) *query {
	if logw == nil {
		logw = s.DefaultLogWriter
	}
	return &query{
		Stub:  s,
		start: time.Now(),
		logw:  logw,
	}
}
