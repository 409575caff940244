// Package cache provides caching for API responses with file and Redis
// backends.
//
// File cache entries are JSON, scoped per resource type, server URL, and
// company ID. Default TTL is 5 minutes. Disable with PACT_NO_CACHE=1.
// Set PACT_CACHE_REDIS_URL to use Redis instead of the filesystem.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Cache is the common interface over the file and Redis backends.
type Cache interface {
	Get(dst any) bool
	Put(items any)
	Clear()
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// Store reads and writes a single file cache key (resource+server+company).
type Store struct {
	path string
	ttl  time.Duration
}

var _ Cache = (*Store)(nil)

// NewStore creates a Store with the default 5-minute TTL.
// dir is the cache directory (typically from DefaultDir).
// key is the resource type (e.g. "channels").
// baseURL is the Pact server URL.
// companyID is the Pact company ID.
func NewStore(dir, key, baseURL string, companyID int) *Store {
	return NewStoreWithTTL(dir, key, baseURL, companyID, DefaultTTL)
}

// NewStoreWithTTL creates a Store with a custom TTL.
func NewStoreWithTTL(dir, key, baseURL string, companyID int, ttl time.Duration) *Store {
	key = sanitizeKey(key)
	hash := sha1.Sum([]byte(baseURL))
	suffix := hex.EncodeToString(hash[:6])
	filename := fmt.Sprintf("%s_%s_%d.json", key, suffix, companyID)
	return &Store{
		path: filepath.Join(dir, filename),
		ttl:  ttl,
	}
}

// Get loads cached items into dst. Returns false on miss (no file, expired, disabled).
func (s *Store) Get(dst any) bool {
	if disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if time.Since(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *Store) Put(items any) {
	if disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{
		CachedAt: time.Now(),
		Items:    raw,
	})
	if err != nil {
		return
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}

	// Atomic-ish write: write temp then rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path)
}

// Clear removes this cache file.
func (s *Store) Clear() {
	_ = os.Remove(s.path)
}

// ClearAll removes all cache files from the directory.
// For safety, it only removes files matching this project's cache filename scheme.
func ClearAll(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !isCacheFilename(name) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, name))
	}
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/pact-cli" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "pact-cli"), nil
}

// New picks a backend for the given key: Redis when PACT_CACHE_REDIS_URL
// is set and reachable, the file store otherwise.
func New(dir, key, baseURL string, companyID int) Cache {
	if redisURL := strings.TrimSpace(os.Getenv("PACT_CACHE_REDIS_URL")); redisURL != "" {
		if rs, err := NewRedisStore(redisURL, key, baseURL, companyID, DefaultTTL); err == nil {
			return rs
		}
	}
	return NewStore(dir, key, baseURL, companyID)
}

func disabled() bool {
	return os.Getenv("PACT_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	// Underscores separate the filename parts, so they cannot appear in
	// the key itself or ClearAll would skip the file.
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>_<company>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	base := strings.TrimSuffix(name, ".json")
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return false
	}
	if parts[0] == "" {
		return false
	}
	if len(parts[1]) != 12 || !isHex(parts[1]) {
		return false
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return false
	}
	return true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
