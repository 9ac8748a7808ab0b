package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/netip"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/linkdata/rate"
	"github.com/linkdata/stubdns"
	"github.com/miekg/dns"
)

var flagNs = flag.String("ns", "", "comma separated nameserver addresses, empty means system discovery")
var flagHosts = flag.Bool("hosts", true, "consult the hosts file before querying")
var flagTimeout = flag.Int("timeout", 5, "individual query timeout in seconds")
var flagAttempts = flag.Int("attempts", 2, "passes over the nameserver list")
var flagRatelimit = flag.Int("ratelimit", 0, "rate limit queries, 0 means no limit")
var flagOrder = flag.Bool("order", false, "order nameservers by measured latency")
var flag4 = flag.Bool("4", true, "return IPv4 addresses")
var flag6 = flag.Bool("6", true, "return IPv6 addresses")
var flagDebug = flag.Bool("debug", false, "print debug output")
var flagSystem = flag.Bool("system", false, "also print the system DNS servers")

func lookupNetwork(use4, use6 bool) string {
	switch {
	case use4 && !use6:
		return "ip4"
	case use6 && !use4:
		return "ip6"
	}
	return "ip"
}

func formatResult(host string, addrs []netip.Addr, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: error: %v (EDE: %s)", host, err,
			dns.ExtendedErrorCodeToString[stubdns.ExtendedRcodeFromError(err)])
	}
	l := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		l = append(l, addr.String())
	}
	return fmt.Sprintf("%s: %s", host, strings.Join(l, " "))
}

func main() {
	flag.Parse()

	names := flag.Args()
	if len(names) == 0 && !*flagSystem {
		fmt.Println("missing one or more names to look up")
		return
	}

	builder := stubdns.NewBuilder().
		UseHostsFile(*flagHosts).
		Timeout(time.Second * time.Duration(*flagTimeout)).
		MaxRetries(*flagAttempts).
		OrderByLatency(*flagOrder).
		WithCache(stubdns.DefaultCache)
	if *flagNs != "" {
		builder.UseNameserver(strings.Split(*flagNs, ",")...)
	}

	var dbgout io.Writer
	if *flagDebug {
		dbgout = os.Stderr
		builder.DebugLog(dbgout)
	}

	maxrate := int32(*flagRatelimit) // #nosec G115
	if maxrate > 0 {
		builder.WithRateLimiter(rate.NewTicker(nil, &maxrate).C)
	}

	resolver, err := builder.Build()
	if err != nil {
		log.Fatal(err)
	}

	network := lookupNetwork(*flag4, *flag6)
	ctx := context.Background()

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addrs, err := resolver.LookupNetIP(ctx, network, name)
			results[i] = formatResult(name, addrs, err)
		}()
	}
	wg.Wait()

	for _, line := range results {
		fmt.Println(line)
	}

	if *flagSystem {
		if servers, err := stubdns.SystemDNSServers(); err != nil {
			fmt.Printf("system DNS servers: error: %v\n", err)
		} else {
			l := make([]string, 0, len(servers))
			for _, addr := range servers {
				l = append(l, addr.String())
			}
			fmt.Printf("system DNS servers: %s\n", strings.Join(l, " "))
		}
	}

	if *flagDebug {
		fmt.Printf(";;; cache size %d, hit ratio %.2f%%\n",
			stubdns.DefaultCache.Entries(), stubdns.DefaultCache.HitRatio())
	}
}
