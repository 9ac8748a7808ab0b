package stubdns

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
)

const (
	// maxCacheTTL caps how long a response stays cached, in seconds.
	maxCacheTTL = 3600
	// negCacheTTL is used for responses without any TTL-carrying records,
	// such as NXDOMAIN replies lacking a SOA.
	negCacheTTL = maxCacheTTL / 10
)

var _ Cacher = (*Cache)(nil) // ensure we implement interface

// Cache is an in-memory DNS response cache keyed by question name and
// type, honoring record TTLs up to maxCacheTTL. The zero value is not
// usable, call NewCache. A nil *Cache is safe to use and caches nothing.
type Cache struct {
	count uint64 // atomic
	hits  uint64 // atomic
	mu    sync.RWMutex
	cache map[cacheKey]cacheValue
}

type cacheKey struct {
	qname string
	qtype uint16
}

type cacheValue struct {
	*dns.Msg
	expires time.Time
}

// DefaultCache is the cache used by cmd/cli; the library itself only
// caches when a Cacher is configured on the builder.
var DefaultCache = NewCache()

func NewCache() *Cache {
	return &Cache{
		cache: make(map[cacheKey]cacheValue),
	}
}

// HitRatio returns the hit ratio as a percentage.
func (cache *Cache) HitRatio() float64 {
	if cache != nil {
		if count := atomic.LoadUint64(&cache.count); count > 0 {
			hits := atomic.LoadUint64(&cache.hits)
			return float64(hits*100) / float64(count)
		}
	}
	return 0
}

// Entries returns the number of entries in the cache.
func (cache *Cache) Entries() (n int) {
	if cache != nil {
		cache.mu.RLock()
		n = len(cache.cache)
		cache.mu.RUnlock()
	}
	return
}

func (cache *Cache) DnsSet(msg *dns.Msg) {
	if cache != nil && msg != nil && len(msg.Question) > 0 {
		ttl := min(MinTTL(msg), maxCacheTTL)
		if ttl < 0 {
			ttl = negCacheTTL
		}
		cp := msg.Copy()
		cp.Zero = true
		ck := cacheKey{
			qname: dns.CanonicalName(msg.Question[0].Name),
			qtype: msg.Question[0].Qtype,
		}
		cv := cacheValue{
			Msg:     cp,
			expires: time.Now().Add(time.Duration(ttl) * time.Second),
		}
		cache.mu.Lock()
		cache.cache[ck] = cv
		cache.mu.Unlock()
	}
}

func (cache *Cache) DnsGet(qname string, qtype uint16) *dns.Msg {
	if cache != nil {
		ck := cacheKey{qname: qname, qtype: qtype}
		cache.mu.RLock()
		cv, ok := cache.cache[ck]
		cache.mu.RUnlock()
		atomic.AddUint64(&cache.count, 1)
		if ok {
			if time.Since(cv.expires) < 0 {
				atomic.AddUint64(&cache.hits, 1)
				return cv.Msg
			}
			cache.mu.Lock()
			delete(cache.cache, ck)
			cache.mu.Unlock()
		}
	}
	return nil
}

// Clean removes entries expired at the given time. A zero time empties the cache.
func (cache *Cache) Clean(now time.Time) {
	if cache != nil {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		if now.IsZero() {
			clear(cache.cache)
			return
		}
		for ck, cv := range cache.cache {
			if now.After(cv.expires) {
				delete(cache.cache, ck)
			}
		}
	}
}
