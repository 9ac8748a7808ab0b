package stubdns

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"slices"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

// LookupNetIP looks up host and returns its IP addresses of the type
// specified by network ("ip", "ip4" or "ip6").
//
// The hosts file, when enabled, is consulted before any network I/O and a
// hit returns its addresses in file order. Otherwise A and AAAA queries
// are issued concurrently and the answers merged into one deterministic
// sequence: IPv4 addresses in answer order followed by IPv6 addresses in
// answer order. An authoritative NXDOMAIN fails with ErrNameNotFound; a
// spent retry budget fails with an error satisfying
// errors.Is(err, ErrNoResponse).
func (s *Stub) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	switch network {
	case "ip", "ip4", "ip6":
	default:
		return nil, net.UnknownNetworkError(network)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if (network == "ip4" && !addr.Is4()) || (network == "ip6" && !addr.Is6()) {
			return nil, ErrNoAddresses
		}
		return []netip.Addr{addr}, nil
	}

	qname, err := normalizeHostname(host)
	if err != nil {
		return nil, err
	}

	if addrs := s.hosts.lookup(qname, network); len(addrs) > 0 {
		return slices.Clone(addrs), nil
	}
	if len(s.servers) == 0 {
		// hosts-only resolver and the hosts file missed
		return nil, ErrNameNotFound
	}

	var lastErr error
	for _, cand := range s.candidates(qname, strings.HasSuffix(host, ".")) {
		addrs, err := s.lookupFamilies(ctx, cand, network)
		if err == nil {
			return addrs, nil
		}
		lastErr = err
		if errors.Is(err, ErrNameNotFound) || errors.Is(err, ErrNoAddresses) {
			continue
		}
		// transport exhaustion or cancellation; trying more candidates
		// would just spend the same budget again
		return nil, err
	}
	return nil, lastErr
}

// LookupHost looks up host and returns its addresses as strings.
func (s *Stub) LookupHost(ctx context.Context, host string) (addrs []string, err error) {
	var ips []netip.Addr
	if ips, err = s.LookupNetIP(ctx, "ip", host); err == nil {
		for _, ip := range ips {
			addrs = append(addrs, ip.String())
		}
	}
	return
}

// LookupIP looks up host and returns its addresses as net.IP.
func (s *Stub) LookupIP(ctx context.Context, network, host string) (ips []net.IP, err error) {
	var addrs []netip.Addr
	if addrs, err = s.LookupNetIP(ctx, network, host); err == nil {
		for _, addr := range addrs {
			ips = append(ips, addr.AsSlice())
		}
	}
	return
}

// LookupIPAddr looks up host and returns its addresses as net.IPAddr.
func (s *Stub) LookupIPAddr(ctx context.Context, host string) (addrs []net.IPAddr, err error) {
	var ips []net.IP
	if ips, err = s.LookupIP(ctx, "ip", host); err == nil {
		for _, ip := range ips {
			addrs = append(addrs, net.IPAddr{IP: ip})
		}
	}
	return
}

// candidates returns the names to try in order. Rooted input is tried
// verbatim; unrooted names try the bare name first and then each search
// domain. Candidates that would exceed the DNS name length limit are
// skipped.
func (s *Stub) candidates(qname string, rooted bool) []string {
	names := []string{qname}
	if !rooted {
		for _, suffix := range s.search {
			cand := strings.TrimSuffix(qname, ".") + "." + suffix
			if _, ok := dns.IsDomainName(cand); ok {
				names = append(names, cand)
			}
		}
	}
	return names
}

// lookupFamilies issues the A and/or AAAA queries for qname concurrently
// and merges the answers.
func (s *Stub) lookupFamilies(ctx context.Context, qname, network string) ([]netip.Addr, error) {
	var qtypes []uint16
	if network != "ip6" {
		qtypes = append(qtypes, dns.TypeA)
	}
	if network != "ip4" {
		qtypes = append(qtypes, dns.TypeAAAA)
	}

	msgs := make([]*dns.Msg, len(qtypes))
	errs := make([]error, len(qtypes))
	var g errgroup.Group
	for i, qtype := range qtypes {
		g.Go(func() error {
			q := s.newQuery(nil)
			msgs[i], errs[i] = q.run(ctx, qname, qtype)
			return nil
		})
	}
	_ = g.Wait()

	// qtypes lists A before AAAA, so the merge is IPv4 then IPv6 with
	// answer order preserved within each family.
	var addrs []netip.Addr
	for _, msg := range msgs {
		if msg == nil || msg.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, rr := range msg.Answer {
			if addr := AddrFromRR(rr); addr.IsValid() {
				addrs = append(addrs, addr)
			}
		}
	}
	if len(addrs) > 0 {
		// one family answering is enough; a host with only AAAA
		// records is not an error
		return addrs, nil
	}
	for _, msg := range msgs {
		if msg != nil && msg.Rcode == dns.RcodeNameError {
			return nil, ErrNameNotFound
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return nil, ErrNoAddresses
}
