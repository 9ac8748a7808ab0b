package stubdns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// exchange sends the query to a single nameserver over UDP and returns the
// first valid response. A truncated response triggers exactly one TCP
// retry to the same server; FORMERR triggers a TCP retry without cookies.
func (q *query) exchange(ctx context.Context, server netip.AddrPort, qname string, qtype uint16) (msg *dns.Msg, err error) {
	useCookies := true
	if msg, err = q.exchangeUsing(ctx, "udp", useCookies, server, qname, qtype); msg != nil {
		if msg.MsgHdr.Truncated {
			_ = q.dbg() && q.log("message truncated; retry using TCP\n")
			msg = nil
		} else if msg.MsgHdr.Rcode == dns.RcodeFormatError {
			_ = q.dbg() && q.log("got FORMERR, retry using TCP without cookies\n")
			msg = nil
			useCookies = false
		} else {
			return
		}
		msg, err = q.exchangeUsing(ctx, "tcp", useCookies, server, qname, qtype)
	}
	return
}

func (q *query) exchangeUsing(ctx context.Context, protocol string, useCookies bool, server netip.AddrPort, qname string, qtype uint16) (msg *dns.Msg, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	if q.rateLimiter != nil {
		select {
		case <-q.rateLimiter:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	network := protocol + "4"
	if server.Addr().Is6() {
		network = protocol + "6"
	}

	if q.timeout > 0 {
		ctx2, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()
		ctx = ctx2
	}

	if q.dbg() {
		q.log("SENDING %s: @%s %s %q", network, server, DnsTypeToString(qtype), qname)
	}

	var nconn net.Conn
	if nconn, err = q.DialContext(ctx, network, server.String()); err != nil {
		err = &TransportError{Server: server, Protocol: protocol, Err: err}
		if q.dbg() {
			fmt.Fprintf(q.logw, " dial error: %v\n", err)
		}
		return
	}
	q.sent++
	dnsconn := &dns.Conn{Conn: nconn, UDPSize: dns.DefaultMsgSize}
	defer dnsconn.Close()

	// Cancellation must unblock a pending read.
	stop := context.AfterFunc(ctx, func() { _ = nconn.SetDeadline(time.Now()) })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = nconn.SetDeadline(deadline)
	}

	m := new(dns.Msg)
	m.SetQuestion(qname, qtype)
	m.Id = newTxID()

	opt := new(dns.OPT)
	opt.Hdr.Name = "."
	opt.Hdr.Rrtype = dns.TypeOPT
	opt.SetUDPSize(dns.DefaultMsgSize)

	var clicookie, srvcookie string
	if useCookies {
		var hasSrvCookie bool
		clicookie, srvcookie, hasSrvCookie = q.getCookies(server.Addr())
		useCookies = !hasSrvCookie || srvcookie != ""
		if useCookies {
			opt.Option = append(opt.Option, &dns.EDNS0_COOKIE{
				Code:   dns.EDNS0COOKIE,
				Cookie: clicookie + srvcookie,
			})
			if q.dbg() {
				fmt.Fprintf(q.logw, " COOKIE:c=%q s=%q", maskCookie(clicookie), maskCookie(srvcookie))
			}
		}
	}
	m.Extra = append(m.Extra, opt)

	start := time.Now()
	if err = dnsconn.WriteMsg(m); err != nil {
		err = &TransportError{Server: server, Protocol: protocol, Err: err}
		if q.dbg() {
			fmt.Fprintf(q.logw, " write error: %v\n", err)
		}
		return
	}

	// Read until a response matches our transaction id and question, or
	// the deadline passes. Forged, mismatched and malformed datagrams are
	// dropped here; they never reach the caller.
	for msg == nil {
		var r *dns.Msg
		if r, err = dnsconn.ReadMsg(); err != nil {
			var ne net.Error
			if protocol == "udp" && !errors.As(err, &ne) && !errors.Is(err, io.EOF) {
				_ = q.dbg() && q.log("dropping malformed response: %v\n", err)
				err = nil
				continue
			}
			if ctxErr := context.Cause(ctx); ctxErr != nil {
				err = ctxErr
			}
			err = &TransportError{Server: server, Protocol: protocol, Err: err}
			if q.dbg() {
				fmt.Fprintf(q.logw, " error: %v\n", err)
			}
			return
		}
		switch {
		case r.Id != m.Id:
			_ = q.dbg() && q.log("dropping response with mismatched id %#04x\n", r.Id)
		case !questionEchoed(m, r):
			_ = q.dbg() && q.log("dropping response with mismatched question\n")
		default:
			msg = r
		}
	}
	rtt := time.Since(start)

	if useCookies {
		newsrvcookie := srvcookie
		if opt := msg.IsEdns0(); opt != nil {
			for _, rr := range opt.Option {
				switch rr := rr.(type) {
				case *dns.EDNS0_COOKIE:
					if strings.HasPrefix(rr.Cookie, clicookie) {
						newsrvcookie = strings.TrimPrefix(rr.Cookie, clicookie)
					} else {
						msg = nil
						err = ErrInvalidCookie
					}
				}
			}
		}
		if srvcookie != newsrvcookie {
			q.setSrvCookie(time.Now(), server.Addr(), newsrvcookie)
		}
	}

	if q.dbg() {
		q.logResponse(msg, rtt, err)
	}
	return
}

// questionEchoed reports whether the response echoes the question we sent.
// Failure responses from some servers omit the question section; those are
// accepted on transaction id alone.
func questionEchoed(req, resp *dns.Msg) bool {
	if len(resp.Question) == 0 {
		return resp.Rcode != dns.RcodeSuccess
	}
	q0, r0 := req.Question[0], resp.Question[0]
	return q0.Qtype == r0.Qtype && q0.Qclass == r0.Qclass && strings.EqualFold(q0.Name, r0.Name)
}

func (q *query) logResponse(msg *dns.Msg, rtt time.Duration, err error) {
	if msg != nil {
		fmt.Fprintf(q.logw, " => %s [%v+%v+%v A/N/E] (%v, %d bytes",
			dns.RcodeToString[msg.Rcode],
			len(msg.Answer), len(msg.Ns), len(msg.Extra),
			rtt.Round(time.Millisecond), msg.Len())
		if msg.MsgHdr.Truncated {
			fmt.Fprintf(q.logw, " TRNC")
		}
		if msg.MsgHdr.Authoritative {
			fmt.Fprintf(q.logw, " AUTH")
		}
		fmt.Fprintf(q.logw, ")")
	}
	if err != nil {
		fmt.Fprintf(q.logw, " error: %v", err)
	}
	fmt.Fprintln(q.logw)
}
