//go:build windows

package stubdns

// Windows keeps its resolver configuration in the registry and per-adapter
// settings rather than a resolv.conf; reading it is not implemented.
func readSystemConfig() (*systemConfig, error) {
	return nil, ErrSystemConfig
}
