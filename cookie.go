package stubdns

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	rand "math/rand/v2"
	"net/netip"
	"sort"
	"time"
)

var crandRead func(b []byte) (n int, err error) = crand.Read

type srvCookie struct {
	value string
	ts    time.Time
}

func makeCookie() string {
	var b [8]byte
	n, _ := crandRead(b[:])
	x := binary.LittleEndian.Uint64(b[:])
	if n < len(b) {
		x ^= rand.Uint64() // #nosec G404
	}
	return fmt.Sprintf("%016x", x)
}

func maskCookie(s string) string {
	if len(s) > 5 {
		return "..." + s[len(s)-5:]
	}
	return s
}

// newTxID returns a fresh random transaction id for a single query attempt.
func newTxID() uint16 {
	var b [2]byte
	n, _ := crandRead(b[:])
	x := binary.BigEndian.Uint16(b[:])
	if n < len(b) {
		x ^= uint16(rand.Uint32()) // #nosec G404,G115
	}
	return x
}

// ResetCookies generates a new DNS client cookie and clears the known DNS server cookies.
func (s *Stub) ResetCookies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicookie = makeCookie()
	clear(s.srvcookies)
}

func (s *Stub) cleanupSrvCookiesLocked(now time.Time) {
	cutoff := now.Add(-srvCookieTTL)
	for addr, c := range s.srvcookies {
		if c.ts.Before(cutoff) {
			delete(s.srvcookies, addr)
		}
	}
	if len(s.srvcookies) <= maxSrvCookies {
		return
	}
	type ac struct {
		addr netip.Addr
		ts   time.Time
	}
	l := make([]ac, 0, len(s.srvcookies))
	for addr, c := range s.srvcookies {
		l = append(l, ac{addr: addr, ts: c.ts})
	}
	sort.Slice(l, func(i, j int) bool { return l[i].ts.Before(l[j].ts) })
	for i := 0; len(s.srvcookies) > maxSrvCookies && i < len(l); i++ {
		delete(s.srvcookies, l[i].addr)
	}
}

func (s *Stub) cleanupSrvCookies(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupSrvCookiesLocked(now)
}

func (s *Stub) getCookies(addr netip.Addr) (clicookie, srvcookie string, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clicookie = s.clicookie
	if c, ok := s.srvcookies[addr]; ok && time.Since(c.ts) < srvCookieTTL {
		srvcookie = c.value
		found = true
	}
	return
}

func (s *Stub) setSrvCookie(now time.Time, addr netip.Addr, val string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupSrvCookiesLocked(now)
	s.srvcookies[addr] = srvCookie{value: val, ts: now}
}
