// Package pathcache implements the per-backend TTL cache subsystem from
// spec §4.2: directory listings, stats, and negative lookups for the S3
// and SSH backends, with the bulk-stat optimization (one list_directory
// call populates per-child stat entries so the following N stat calls
// are free) and cache-key hygiene shared with pathvfs.
//
// One Cache is owned by exactly one Backend instance (spec: "cache
// instances are owned by their PathImpl backend"); it is never shared
// across authorities or schemes.
package pathcache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shimomut/tfm/pathvfs"
)

// DefaultTTL is the spec-mandated default for listings and stats.
const DefaultTTL = 300 * time.Second

type op string

const (
	opStat op = "stat"
	opList op = "list_directory"
)

type statValue struct {
	entry pathvfs.FileEntry
	err   error
}

type listValue struct {
	entries []pathvfs.FileEntry
	err     error
}

// Cache is a TTL cache mapping "authority:op:path" to a value, safe for
// concurrent use by the UI thread and background workers.
type Cache struct {
	authority string
	ttl       time.Duration
	c         *gocache.Cache
}

// New creates a Cache for one backend authority (bucket name or host
// alias) with the given TTL; ttl<=0 uses DefaultTTL.
func New(authority string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		authority: authority,
		ttl:       ttl,
		c:         gocache.New(ttl, ttl*2),
	}
}

func (c *Cache) key(o op, path string) string {
	return c.authority + ":" + string(o) + ":" + path
}

// GetStat consults the cache before any network call (spec §4.2). found
// is false on a miss; when found is true, err may be a cached negative
// result (NotFound / PermissionDenied).
func (c *Cache) GetStat(path string) (entry pathvfs.FileEntry, err error, found bool) {
	v, ok := c.c.Get(c.key(opStat, path))
	if !ok {
		return pathvfs.FileEntry{}, nil, false
	}
	sv := v.(statValue)
	return sv.entry, sv.err, true
}

// PutStat caches a single stat result, positive or negative.
func (c *Cache) PutStat(path string, entry pathvfs.FileEntry, err error) {
	c.c.Set(c.key(opStat, path), statValue{entry: entry, err: err}, c.ttl)
}

// GetListDir consults the cached directory listing.
func (c *Cache) GetListDir(path string) (entries []pathvfs.FileEntry, err error, found bool) {
	v, ok := c.c.Get(c.key(opList, path))
	if !ok {
		return nil, nil, false
	}
	lv := v.(listValue)
	return lv.entries, lv.err, true
}

// PutListDir caches a directory listing AND, as the bulk-stat
// optimization, a stat entry for every child — so the N subsequent stat
// calls a directory-open triggers are served from cache with zero
// network I/O (spec §4.2, §8 "SSH bulk-stat" boundary behavior).
func (c *Cache) PutListDir(path string, entries []pathvfs.FileEntry, err error) {
	c.c.Set(c.key(opList, path), listValue{entries: entries, err: err}, c.ttl)
	if err != nil {
		return
	}
	for _, e := range entries {
		childPath := joinCacheKey(path, e.Name)
		c.PutStat(childPath, e, nil)
	}
}

func joinCacheKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// Invalidate invalidates the list_directory entry for parentPath and
// every stat entry whose key is parentPath or a descendant of it. All mutating
// operations must call this for the destination's parent (and the
// source's parent, for moves) before their result is observed by the
// caller (spec §8 happens-before invariant).
func (c *Cache) Invalidate(parentPath string) {
	c.c.Delete(c.key(opList, parentPath))

	prefix := c.authority + ":" + string(opStat) + ":"
	for k := range c.c.Items() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		candidate := strings.TrimPrefix(k, prefix)
		if candidate == parentPath || isDescendant(candidate, parentPath) {
			c.c.Delete(k)
		}
	}
}

func isDescendant(candidate, of string) bool {
	if of == "" {
		return candidate != ""
	}
	return strings.HasPrefix(candidate, of+"/")
}

// Flush drops every cached entry for this authority. Used on explicit
// full-authority eviction (e.g. SSH connection reset).
func (c *Cache) Flush() {
	c.c.Flush()
}
