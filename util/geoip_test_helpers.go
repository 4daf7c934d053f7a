package util

import "github.com/patrickmn/go-cache"

// SetIPLocationForTesting pins the location GetIPLocation reports for ip,
// so tests in other packages can exercise location stamping without an
// MMDB file. Not for production use.
func SetIPLocationForTesting(ip string, loc IPLocation) {
	if geoipCache == nil {
		geoipCache = cache.New(cache.NoExpiration, 0)
	}
	geoipCache.Set(ip, loc, cache.NoExpiration)
}
