package stubdns

import (
	"context"
	"net/netip"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

// serverRtt stores round-trip time measurements for a nameserver
type serverRtt struct {
	server netip.AddrPort
	rtt    time.Duration
}

// timeServer measures the RTT to a nameserver by making multiple connection attempts
func timeServer(ctx context.Context, dialer proxy.ContextDialer, wg *sync.WaitGroup, rt *serverRtt) {
	defer wg.Done()

	const numProbes = 3

	network := "tcp4"
	if rt.server.Addr().Is6() {
		network = "tcp6"
	}

	rt.rtt = time.Hour // Default to very high if all probes fail

	var totalRtt time.Duration
	successfulProbes := 0

	for i := 0; i < numProbes; i++ {
		start := time.Now()
		conn, err := dialer.DialContext(ctx, network, rt.server.String())
		if err != nil {
			continue
		}

		totalRtt += time.Since(start)
		successfulProbes++
		_ = conn.Close()
	}

	if successfulProbes > 0 {
		rt.rtt = totalRtt / time.Duration(successfulProbes)
	}
}

// orderServersByLatency probes every server concurrently and returns the
// list sorted fastest first. Unreachable servers keep their relative order
// at the end of the list rather than being dropped.
func orderServersByLatency(dialer proxy.ContextDialer, servers []netip.AddrPort, timeout time.Duration) []netip.AddrPort {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	l := make([]*serverRtt, 0, len(servers))
	for _, server := range servers {
		rt := &serverRtt{server: server}
		l = append(l, rt)
		wg.Add(1)
		go timeServer(ctx, dialer, &wg, rt)
	}
	wg.Wait()

	sort.SliceStable(l, func(i, j int) bool { return l[i].rtt < l[j].rtt })

	ordered := make([]netip.AddrPort, 0, len(l))
	for _, rt := range l {
		ordered = append(ordered, rt.server)
	}
	return ordered
}
