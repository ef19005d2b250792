package stub

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/djherbis/atime"
	"gopkg.in/op/go-logging.v1"

	"github.com/pyanalyze/pyanalyze/cmap"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

var log = logging.MustGetLogger("stub")

// Config governs the stub loader's cache sizing.
type Config struct {
	// StubCacheEntries bounds how many parsed summaries are kept resident;
	// 0 means DefaultConfig's value.
	StubCacheEntries int
}

func DefaultConfig() Config { return Config{StubCacheEntries: 512} }

type cacheKey struct {
	path    string
	version string
	hash    uint64
}

type cacheEntry struct {
	module   value.Module
	lastUsed time.Time
}

// cacheKeyHasher lets cacheKey (a struct, not a string) back a cmap.Map by
// hashing the path, version tag, and content hash together.
func cacheKeyHasher(k cacheKey) uint64 {
	return xxhash.Sum64String(k.path + "\x00" + k.version + "\x00" + strconv.FormatUint(k.hash, 16))
}

// Loader caches parsed module summaries keyed on interpreter-version plus
// file content hash (spec §4.H "caches parsed summaries by
// interpreter-version plus file-hash and reuses them across analysis
// sessions"), evicting the least-recently-accessed entry once the cache
// exceeds Config.StubCacheEntries. Recency is read from the backing file's
// actual OS access time via atime, rather than an internally simulated
// clock, the way djherbis/atime is meant to be used.
type Loader struct {
	cfg Config

	// evictMu serializes the read-modify-write eviction scan; cache itself
	// is safe for concurrent Get/Set from queue workers loading distinct
	// stubs without contending on one lock.
	evictMu sync.Mutex
	cache   *cmap.Map[cacheKey, *cacheEntry]
}

func NewLoader(cfg Config) *Loader {
	if cfg.StubCacheEntries <= 0 {
		cfg.StubCacheEntries = DefaultConfig().StubCacheEntries
	}
	return &Loader{cfg: cfg, cache: cmap.New[cacheKey, *cacheEntry](16, cacheKeyHasher)}
}

// Load parses (or returns a cached) module summary for the file at path.
func (l *Loader) Load(path string, version token.Version) (value.Module, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return value.Module{}, fmt.Errorf("reading stub %s: %w", path, err)
	}
	key := cacheKey{path: path, version: version.String(), hash: xxhash.Sum64(content)}

	if entry, ok := l.cache.Get(key); ok {
		entry.lastUsed = l.accessTime(path)
		return entry.module, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return value.Module{}, err
	}
	defer f.Close()
	summary, err := ParseSummary(f)
	if err != nil {
		return value.Module{}, fmt.Errorf("parsing stub %s: %w", path, err)
	}
	mod := ToModule(summary)

	l.cache.Set(key, &cacheEntry{module: mod, lastUsed: l.accessTime(path)})
	l.evictIfNeeded()
	return mod, nil
}

func (l *Loader) accessTime(path string) time.Time {
	if t, err := atime.Stat(path); err == nil {
		return t
	}
	return time.Time{}
}

// evictIfNeeded drops the least-recently-accessed entries once the cache
// grows past Config.StubCacheEntries.
func (l *Loader) evictIfNeeded() {
	l.evictMu.Lock()
	defer l.evictMu.Unlock()
	for l.cache.Len() > l.cfg.StubCacheEntries {
		var oldestKey cacheKey
		var oldestTime time.Time
		first := true
		l.cache.Range(func(k cacheKey, e *cacheEntry) bool {
			if first || e.lastUsed.Before(oldestTime) {
				oldestKey, oldestTime, first = k, e.lastUsed, false
			}
			return true
		})
		if first {
			return
		}
		l.cache.Delete(oldestKey)
		log.Debug("evicted stub cache entry %s", oldestKey.path)
	}
}
