package stubdns

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/miekg/dns"
)

// query holds the state of a single in-flight lookup. Each lookup owns its
// own query, so no locking is needed beyond the cookie table in Stub.
type query struct {
	*Stub
	start time.Time
	logw  io.Writer
	sent  int
}

func (q *query) dbg() bool {
	return q.logw != nil
}

func (q *query) log(format string, args ...any) bool {
	fmt.Fprintf(q.logw, "[%-5d] ", time.Since(q.start).Milliseconds())
	fmt.Fprintf(q.logw, format, args...)
	return false
}

// run asks the configured nameservers for qname/qtype, trying them in
// listed order and making up to Attempts passes over the full list.
// NOERROR and NXDOMAIN responses are terminal; other response codes and
// transport failures advance to the next nameserver. Once the budget is
// spent the last failure is returned wrapped so that it satisfies
// errors.Is(err, ErrNoResponse).
func (q *query) run(ctx context.Context, qname string, qtype uint16) (*dns.Msg, error) {
	if q.Cacher != nil {
		if msg := q.DnsGet(qname, qtype); msg != nil {
			_ = q.dbg() && q.log("cached answer: %s %q => %s [%d records]\n",
				DnsTypeToString(qtype), qname, dns.RcodeToString[msg.Rcode], len(msg.Answer))
			return msg, nil
		}
	}
	if len(q.servers) == 0 {
		return nil, exhaustedError{ErrNoNameservers}
	}

	var msg *dns.Msg
	err := retry.Do(
		func() error {
			var lastErr error
			for _, server := range q.servers {
				m, err := q.exchange(ctx, server, qname, qtype)
				if err != nil {
					lastErr = err
					if ctx.Err() != nil {
						return lastErr
					}
					continue
				}
				switch m.Rcode {
				case dns.RcodeSuccess, dns.RcodeNameError:
					msg = m
					q.setCache(m)
					return nil
				default:
					lastErr = RcodeError(m.Rcode)
				}
			}
			if lastErr == nil {
				lastErr = ErrNoResponse
			}
			return lastErr
		},
		retry.Attempts(uint(q.attempts)), // #nosec G115
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
		retry.OnRetry(func(n uint, err error) {
			_ = q.dbg() && q.log("pass %d failed: %v\n", n+1, err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, exhaustedError{err}
	}

	_ = q.dbg() && q.log("ANSWER %s for %s %q with %d records\n",
		dns.RcodeToString[msg.Rcode], DnsTypeToString(qtype), qname, len(msg.Answer))
	return msg, nil
}

func (q *query) setCache(msg *dns.Msg) {
	if msg != nil && !msg.Zero {
		if q.Cacher != nil {
			q.DnsSet(msg)
		}
	}
}
