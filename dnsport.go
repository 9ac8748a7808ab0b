package stubdns

// dnsPort is the standard DNS port, used when a nameserver address has none.
const dnsPort = 53
