//go:build !windows

package stubdns

import (
	"errors"
	"net/netip"
	"testing"
)

func TestReadSystemConfig(t *testing.T) {
	withResolvConf(t, `
# comment line
; also a comment
nameserver 192.0.2.1
nameserver 2001:db8::1 # trailing comment
nameserver not-an-address
nameserver
domain old.example
search lab.example corp.example
options timeout:2
`)
	cfg, err := readSystemConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := []netip.Addr{
		netip.MustParseAddr("192.0.2.1"),
		netip.MustParseAddr("2001:db8::1"),
	}
	if len(cfg.servers) != len(want) {
		t.Fatalf("got servers %v", cfg.servers)
	}
	for i := range want {
		if cfg.servers[i] != want[i] {
			t.Fatalf("server %d: got %v, want %v", i, cfg.servers[i], want[i])
		}
	}
	// search supersedes the earlier domain directive
	if len(cfg.search) != 2 || cfg.search[0] != "lab.example" || cfg.search[1] != "corp.example" {
		t.Fatalf("got search %v", cfg.search)
	}
}

func TestReadSystemConfigDomainOnly(t *testing.T) {
	withResolvConf(t, "nameserver 192.0.2.1\ndomain home.example extra-ignored\n")
	cfg, err := readSystemConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.search) != 1 || cfg.search[0] != "home.example" {
		t.Fatalf("got search %v", cfg.search)
	}
}

func TestSystemDNSServersMissingFile(t *testing.T) {
	withResolvConf(t, "")
	_, err := SystemDNSServers()
	if !errors.Is(err, ErrSystemConfig) {
		t.Fatalf("expected ErrSystemConfig, got %v", err)
	}
}

func TestSystemDNSServers(t *testing.T) {
	withResolvConf(t, "nameserver 192.0.2.1\n")
	servers, err := SystemDNSServers()
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 1 || servers[0] != netip.MustParseAddr("192.0.2.1") {
		t.Fatalf("got %v", servers)
	}
}
