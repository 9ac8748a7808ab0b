package stubdns

import (
	"net/netip"
	"strings"
	"testing"
)

const hostsFixture = `
# static overrides
127.0.0.1   localhost
::1         localhost ip6-localhost
192.0.2.10  web.local www.local # aliases share the address
192.0.2.11  web.local
2001:db8::10 web.local
broken-line
999.999.999.999 skipped.local
`

func TestParseHostsFile(t *testing.T) {
	hf, err := parseHostsFile(strings.NewReader(hostsFixture))
	if err != nil {
		t.Fatal(err)
	}
	if n := hf.size(); n != 4 {
		t.Fatalf("got %d entries, want 4", n)
	}
	if got := hf.lookup("skipped.local.", "ip"); got != nil {
		t.Fatalf("unparseable address must be skipped, got %v", got)
	}
}

func TestHostsLookupOrderAndFamilies(t *testing.T) {
	hf, err := parseHostsFile(strings.NewReader(hostsFixture))
	if err != nil {
		t.Fatal(err)
	}
	want := func(network string, addrs ...string) {
		t.Helper()
		got := hf.lookup("web.local.", network)
		if len(got) != len(addrs) {
			t.Fatalf("%s: got %v, want %v", network, got, addrs)
		}
		for i, w := range addrs {
			if got[i] != netip.MustParseAddr(w) {
				t.Fatalf("%s: address %d: got %v, want %v", network, i, got[i], w)
			}
		}
	}
	want("ip", "192.0.2.10", "192.0.2.11", "2001:db8::10")
	want("ip4", "192.0.2.10", "192.0.2.11")
	want("ip6", "2001:db8::10")
}

func TestHostsLookupCanonicalName(t *testing.T) {
	hf, err := parseHostsFile(strings.NewReader("192.0.2.10 MiXeD.Example\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := hf.lookup("mixed.example.", "ip"); len(got) != 1 {
		t.Fatalf("case-folded lookup failed, got %v", got)
	}
}

func TestHostsLookupAliases(t *testing.T) {
	hf, err := parseHostsFile(strings.NewReader(hostsFixture))
	if err != nil {
		t.Fatal(err)
	}
	if got := hf.lookup("www.local.", "ip4"); len(got) != 1 || got[0] != netip.MustParseAddr("192.0.2.10") {
		t.Fatalf("got %v", got)
	}
	if got := hf.lookup("ip6-localhost.", "ip"); len(got) != 1 || got[0] != netip.MustParseAddr("::1") {
		t.Fatalf("got %v", got)
	}
}

func TestHostsNilTable(t *testing.T) {
	var hf *hostsFile
	if got := hf.lookup("web.local.", "ip"); got != nil {
		t.Fatalf("got %v", got)
	}
	if n := hf.size(); n != 0 {
		t.Fatalf("got %d", n)
	}
}

func TestLoadHostsFileMissing(t *testing.T) {
	hf, err := loadHostsFile("/definitely/not/here/hosts")
	if err != nil {
		t.Fatalf("a missing hosts file is not an error: %v", err)
	}
	if n := hf.size(); n != 0 {
		t.Fatalf("got %d entries", n)
	}
}
