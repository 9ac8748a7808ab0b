package stubdns

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/miekg/dns"
)

// hostsFile is the static name-to-address override table loaded once at
// Build and read-only afterwards. Addresses keep the order they appear in
// the file.
type hostsFile struct {
	entries map[string][]netip.Addr
}

func defaultHostsPath() string {
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return filepath.Join(root, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// loadHostsFile parses the hosts file at path. A missing file loads as an
// empty table since the hosts file is an optional override.
func loadHostsFile(path string) (*hostsFile, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &hostsFile{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return parseHostsFile(f)
}

func parseHostsFile(r io.Reader) (*hostsFile, error) {
	hf := &hostsFile{entries: make(map[string][]netip.Addr)}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		addr, err := netip.ParseAddr(fields[0])
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		for _, name := range fields[1:] {
			qname := dns.CanonicalName(name)
			hf.entries[qname] = append(hf.entries[qname], addr)
		}
	}
	return hf, sc.Err()
}

// lookup returns the addresses mapped to qname, filtered by network
// ("ip", "ip4" or "ip6"), preserving file order.
func (hf *hostsFile) lookup(qname, network string) (addrs []netip.Addr) {
	if hf == nil {
		return nil
	}
	for _, addr := range hf.entries[qname] {
		if (network != "ip6" && addr.Is4()) || (network != "ip4" && addr.Is6()) {
			addrs = append(addrs, addr)
		}
	}
	return
}

func (hf *hostsFile) size() int {
	if hf == nil {
		return 0
	}
	return len(hf.entries)
}
