package stubdns

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/miekg/dns"
)

var (
	// ErrNoNameservers means no nameservers were configured and none could
	// be discovered from the system.
	ErrNoNameservers = errors.New("no nameservers")
	// ErrNameNotFound means a nameserver authoritatively answered NXDOMAIN.
	ErrNameNotFound = errors.New("name not found")
	// ErrNoAddresses means the name exists but carries no address records
	// of the requested family.
	ErrNoAddresses = errors.New("no addresses")
	// ErrNoResponse means the retry budget was spent without a usable
	// response from any nameserver. Use errors.Is to match it.
	ErrNoResponse = errors.New("no usable response")
	// ErrSystemConfig means the system resolver configuration could not be read.
	ErrSystemConfig = errors.New("system resolver configuration unavailable")
	// ErrInvalidCookie means a nameserver echoed a DNS cookie that does not
	// match the one we sent.
	ErrInvalidCookie = errors.New("invalid DNS cookie")
)

// ErrInvalidName matches any *InvalidNameError with errors.Is.
var ErrInvalidName error = &InvalidNameError{}

// InvalidNameError means the given host name cannot be encoded as a DNS name.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

func (e *InvalidNameError) Is(target error) bool {
	_, ok := target.(*InvalidNameError)
	return ok
}

// TransportError wraps a network failure talking to a specific nameserver.
type TransportError struct {
	Server   netip.AddrPort
	Protocol string // "udp" or "tcp"
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s @%s: %v", e.Protocol, e.Server, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RcodeError is a response code that ends a single exchange without being
// a final answer, such as SERVFAIL or REFUSED.
type RcodeError int

func (e RcodeError) Error() string {
	if s, ok := dns.RcodeToString[int(e)]; ok {
		return "response code " + s
	}
	return fmt.Sprintf("response code %d", int(e))
}

// exhaustedError wraps the last failure seen once the retry budget is
// spent, so callers can match both ErrNoResponse and the underlying cause.
type exhaustedError struct {
	e error
}

func (e exhaustedError) Error() string {
	if e.e == nil || e.e == ErrNoResponse {
		return ErrNoResponse.Error()
	}
	return ErrNoResponse.Error() + ": " + e.e.Error()
}

func (e exhaustedError) Is(target error) bool {
	return target == ErrNoResponse
}

func (e exhaustedError) Unwrap() error {
	return e.e
}
