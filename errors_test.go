package stubdns

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"
	"testing"

	"github.com/miekg/dns"
)

func TestExhaustedError(t *testing.T) {
	cause := &TransportError{
		Server:   netip.MustParseAddrPort("192.0.2.53:53"),
		Protocol: "udp",
		Err:      io.ErrUnexpectedEOF,
	}
	err := error(exhaustedError{cause})
	if !errors.Is(err, ErrNoResponse) {
		t.Fatal("must satisfy ErrNoResponse")
	}
	var te *TransportError
	if !errors.As(err, &te) || te != cause {
		t.Fatalf("cause not preserved: %v", err)
	}
	if !strings.Contains(err.Error(), "192.0.2.53") {
		t.Fatalf("got %q", err.Error())
	}
	if got := (exhaustedError{ErrNoResponse}).Error(); got != ErrNoResponse.Error() {
		t.Fatalf("got %q", got)
	}
}

func TestInvalidNameError(t *testing.T) {
	err := error(&InvalidNameError{Name: "bad..name", Reason: "empty label"})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatal("must satisfy ErrInvalidName")
	}
	if errors.Is(err, ErrNameNotFound) {
		t.Fatal("must not satisfy ErrNameNotFound")
	}
	if !strings.Contains(err.Error(), "bad..name") {
		t.Fatalf("got %q", err.Error())
	}
}

func TestRcodeError(t *testing.T) {
	if got := RcodeError(dns.RcodeServerFailure).Error(); !strings.Contains(got, "SERVFAIL") {
		t.Fatalf("got %q", got)
	}
	if got := RcodeError(4095).Error(); !strings.Contains(got, "4095") {
		t.Fatalf("got %q", got)
	}
}

func TestExtendedRcodeFromError(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want uint16
	}{
		{nil, dns.ExtendedErrorCodeOther},
		{exhaustedError{os.ErrDeadlineExceeded}, dns.ExtendedErrorCodeNoReachableAuthority},
		{context.DeadlineExceeded, dns.ExtendedErrorCodeNoReachableAuthority},
		{ErrInvalidCookie, dns.ExtendedErrorCodeInvalidData},
		{&InvalidNameError{Name: "x", Reason: "y"}, dns.ExtendedErrorCodeInvalidData},
		{&net.OpError{Op: "read", Err: errors.New("connection refused")}, dns.ExtendedErrorCodeNetworkError},
		{ErrNameNotFound, dns.ExtendedErrorCodeOther},
	} {
		if got := ExtendedRcodeFromError(tc.err); got != tc.want {
			t.Errorf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}
