package stubdns

import (
	"context"
	"errors"
	"net"
	"os"

	"github.com/miekg/dns"
)

// ExtendedRcodeFromError maps a resolution error to an RFC 8914 extended
// DNS error code, for callers synthesizing failure responses.
func ExtendedRcodeFromError(err error) uint16 {
	switch {
	case err == nil:
		return dns.ExtendedErrorCodeOther
	case errors.Is(err, ErrNoResponse),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded):
		return dns.ExtendedErrorCodeNoReachableAuthority
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidCookie):
		return dns.ExtendedErrorCodeInvalidData
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return dns.ExtendedErrorCodeNoReachableAuthority
		}
		return dns.ExtendedErrorCodeNetworkError
	}
	return dns.ExtendedErrorCodeOther
}
