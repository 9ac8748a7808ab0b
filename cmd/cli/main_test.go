package main

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/linkdata/stubdns"
)

func TestLookupNetwork(t *testing.T) {
	for _, tc := range []struct {
		use4, use6 bool
		want       string
	}{
		{true, true, "ip"},
		{true, false, "ip4"},
		{false, true, "ip6"},
		{false, false, "ip"},
	} {
		if got := lookupNetwork(tc.use4, tc.use6); got != tc.want {
			t.Errorf("lookupNetwork(%v, %v) = %q, want %q", tc.use4, tc.use6, got, tc.want)
		}
	}
}

func TestFormatResult(t *testing.T) {
	addrs := []netip.Addr{
		netip.MustParseAddr("192.0.2.1"),
		netip.MustParseAddr("2001:db8::1"),
	}
	if got := formatResult("example.org", addrs, nil); got != "example.org: 192.0.2.1 2001:db8::1" {
		t.Fatalf("got %q", got)
	}
	got := formatResult("missing.org", nil, stubdns.ErrNameNotFound)
	if !strings.Contains(got, "missing.org") || !strings.Contains(got, "error") {
		t.Fatalf("got %q", got)
	}
	got = formatResult("down.org", nil, errors.New("timeout"))
	if !strings.Contains(got, "down.org") {
		t.Fatalf("got %q", got)
	}
}
