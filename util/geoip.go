package util

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// IPLocation is the coarse origin of a client address.
type IPLocation struct {
	City    string
	Country string
}

var (
	geoipDB        *geoip2.Reader
	geoipCache     *cache.Cache
	geoipCacheHits int64
	geoipCacheMiss int64
)

// InitGeoIP opens a GeoIP2/GeoLite2 .mmdb file and enables lookups with a
// 24h in-memory cache. An empty path falls back to GEOIP_DB_PATH; when both
// are empty lookups stay disabled.
func InitGeoIP(dbPath string) error {
	if dbPath == "" {
		dbPath = os.Getenv("GEOIP_DB_PATH")
	}
	if dbPath == "" {
		return nil
	}

	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoipDB = r
	geoipCache = cache.New(24*time.Hour, time.Hour)
	return nil
}

// CloseGeoIP closes the GeoIP DB if opened.
func CloseGeoIP() {
	if geoipDB != nil {
		_ = geoipDB.Close()
		geoipDB = nil
	}
}

// DownloadGeoIP fetches an MMDB file from url into destPath, gunzipping it
// when the url ends in .gz. The file is written to a temp name first and
// renamed into place.
func DownloadGeoIP(ctx context.Context, url, destPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := (&http.Client{Timeout: 60 * time.Second}).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download, status: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), "geoip-*.tmp")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}()

	var src io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		src = gz
	}
	if _, err := io.Copy(tmpFile, src); err != nil {
		return "", err
	}
	if err := tmpFile.Sync(); err != nil {
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpFile.Name(), destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// ValidateGeoIP attempts to open the MMDB file to ensure it's a valid DB.
func ValidateGeoIP(path string) error {
	r, err := geoip2.Open(path)
	if err != nil {
		return err
	}
	return r.Close()
}

func isLocalIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast()
}

// GetIPLocation resolves ip through the cache and then the local GeoIP
// database. Unparseable, local and private addresses resolve to the zero value.
func GetIPLocation(ip string) IPLocation {
	parsed := net.ParseIP(ip)
	if parsed == nil || isLocalIP(parsed) {
		return IPLocation{}
	}

	if geoipCache != nil {
		if v, ok := geoipCache.Get(ip); ok {
			atomic.AddInt64(&geoipCacheHits, 1)
			if loc, ok := v.(IPLocation); ok {
				return loc
			}
		}
	}
	atomic.AddInt64(&geoipCacheMiss, 1)

	if geoipDB == nil {
		return IPLocation{}
	}
	rec, err := geoipDB.City(parsed)
	if err != nil {
		return IPLocation{}
	}

	loc := IPLocation{City: rec.City.Names["en"], Country: rec.Country.Names["en"]}
	if loc.Country == "" {
		loc.Country = rec.Country.IsoCode
	}
	if geoipCache != nil {
		geoipCache.Set(ip, loc, cache.DefaultExpiration)
	}
	return loc
}

// GetGeoIPCacheMetrics returns the cache hits and misses and current cache size.
func GetGeoIPCacheMetrics() (hits int64, misses int64, size int) {
	hits = atomic.LoadInt64(&geoipCacheHits)
	misses = atomic.LoadInt64(&geoipCacheMiss)
	if geoipCache != nil {
		size = geoipCache.ItemCount()
	}
	return hits, misses, size
}
