//go:build !windows

package stubdns

import (
	"bufio"
	"errors"
	"net/netip"
	"os"
	"strings"
)

func readSystemConfig() (*systemConfig, error) {
	f, err := os.Open(resolvConfPath) // #nosec G304
	if err != nil {
		return nil, errors.Join(ErrSystemConfig, err)
	}
	defer f.Close()

	cfg := &systemConfig{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "nameserver":
			if addr, err := netip.ParseAddr(fields[1]); err == nil {
				cfg.servers = append(cfg.servers, addr.Unmap())
			}
		case "search":
			cfg.search = fields[1:]
		case "domain":
			cfg.search = fields[1:2]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Join(ErrSystemConfig, err)
	}
	return cfg, nil
}
