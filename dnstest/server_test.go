package dnstest

import (
	"testing"
	"time"

	"github.com/miekg/dns"
)

func query(t *testing.T, network, addr, name string, qtype uint16) *dns.Msg {
	t.Helper()
	m := new(dns.Msg)
	m.SetQuestion(name, qtype)
	c := &dns.Client{Net: network, Timeout: time.Second}
	r, _, err := c.Exchange(m, addr)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestServerAnswersConfiguredResponses(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = append(msg.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: "example.org.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   []byte{192, 0, 2, 1},
	})
	srv, err := NewServer("127.0.0.1:0", map[string]*Response{
		Key("example.org.", dns.TypeA): {Msg: msg},
		Key("fail.org.", dns.TypeA):    {Rcode: dns.RcodeServerFailure},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	r := query(t, "udp", srv.Addr, "example.org.", dns.TypeA)
	if r.Rcode != dns.RcodeSuccess || len(r.Answer) != 1 {
		t.Fatalf("got %v", r)
	}
	if r = query(t, "udp", srv.Addr, "fail.org.", dns.TypeA); r.Rcode != dns.RcodeServerFailure {
		t.Fatalf("got rcode %s", dns.RcodeToString[r.Rcode])
	}
	if r = query(t, "udp", srv.Addr, "unknown.org.", dns.TypeA); r.Rcode != dns.RcodeNameError {
		t.Fatalf("got rcode %s", dns.RcodeToString[r.Rcode])
	}
	if n := srv.Queries("udp", "example.org.", dns.TypeA); n != 1 {
		t.Fatalf("got %d", n)
	}
	if n := srv.TotalQueries(); n != 3 {
		t.Fatalf("got %d", n)
	}
}

func TestServerTruncatesUDPOnly(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = append(msg.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: "big.org.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   []byte{192, 0, 2, 1},
	})
	srv, err := NewServer("127.0.0.1:0", map[string]*Response{
		Key("big.org.", dns.TypeA): {Msg: msg, Truncate: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	r := query(t, "udp", srv.Addr, "big.org.", dns.TypeA)
	if !r.Truncated || len(r.Answer) != 0 {
		t.Fatalf("UDP reply not truncated: %v", r)
	}
	r = query(t, "tcp", srv.Addr, "big.org.", dns.TypeA)
	if r.Truncated || len(r.Answer) != 1 {
		t.Fatalf("TCP reply should be complete: %v", r)
	}
	if n := srv.Queries("tcp", "big.org.", dns.TypeA); n != 1 {
		t.Fatalf("got %d", n)
	}
}

func TestServerCountsDroppedQueries(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", map[string]*Response{
		Key("drop.org.", dns.TypeA): {Drop: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	m := new(dns.Msg)
	m.SetQuestion("drop.org.", dns.TypeA)
	c := &dns.Client{Net: "udp", Timeout: time.Millisecond * 200}
	if _, _, err = c.Exchange(m, srv.Addr); err == nil {
		t.Fatal("expected a timeout")
	}
	if n := srv.Queries("udp", "drop.org.", dns.TypeA); n != 1 {
		t.Fatalf("got %d", n)
	}
}
