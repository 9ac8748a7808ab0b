package stubdns

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// normalizeHostname validates host and returns it as a canonical rooted
// lowercase name, applying IDNA encoding to non-ASCII input.
func normalizeHostname(host string) (string, error) {
	name := strings.TrimSuffix(host, ".")
	if name == "" {
		return "", &InvalidNameError{Name: host, Reason: "empty name"}
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", &InvalidNameError{Name: host, Reason: err.Error()}
	}
	if len(ascii) > 253 {
		return "", &InvalidNameError{Name: host, Reason: "name too long"}
	}
	for label := range strings.SplitSeq(ascii, ".") {
		if label == "" {
			return "", &InvalidNameError{Name: host, Reason: "empty label"}
		}
		if len(label) > 63 {
			return "", &InvalidNameError{Name: host, Reason: "label too long"}
		}
	}
	return dns.CanonicalName(ascii), nil
}
