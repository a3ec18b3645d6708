package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonNotFound
	MissReasonSize
	MissReasonModTime
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonNotFound:
		return "not_found"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	}
	return "unknown"
}

// CacheResult is the outcome of a lookup. Records is shared with the
// cache and must not be modified.
type CacheResult struct {
	Records    []store.RawRecord
	Found      bool
	MissReason CacheMissReason
}

type entry struct {
	records      []store.RawRecord
	size         int64
	modTime      time.Time
	lastAccessed time.Time
}

// Stats summarizes cache usage
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

// ExportCache keeps decoded export files in memory. An entry stays valid
// while the file keeps the size and modification time it had when decoded.
type ExportCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	hits    int
	misses  int
}

func NewExportCache() *ExportCache {
	return &ExportCache{entries: make(map[string]*entry)}
}

// Get returns the records cached under key if info still describes the
// file they were decoded from.
func (c *ExportCache) Get(key string, info os.FileInfo) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return CacheResult{MissReason: MissReasonNotFound}
	}

	if reason := validate(e, info); reason != MissReasonNone {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s", key), util.F("reason", reason.String()))
		delete(c.entries, key)
		c.misses++
		return CacheResult{MissReason: reason}
	}

	e.lastAccessed = time.Now()
	c.hits++
	return CacheResult{Records: e.records, Found: true}
}

func validate(e *entry, info os.FileInfo) CacheMissReason {
	if info.Size() != e.size {
		return MissReasonSize
	}
	if !info.ModTime().Equal(e.modTime) {
		return MissReasonModTime
	}
	return MissReasonNone
}

// Set stores records decoded from the file described by info
func (c *ExportCache) Set(key string, info os.FileInfo, records []store.RawRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		records:      records,
		size:         info.Size(),
		modTime:      info.ModTime(),
		lastAccessed: time.Now(),
	}
}

// Invalidate drops the entry under key
func (c *ExportCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Prune drops entries not accessed within maxIdle and returns how many
// were removed.
func (c *ExportCache) Prune(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for key, e := range c.entries {
		if e.lastAccessed.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry and resets the counters
func (c *ExportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.hits, c.misses = 0, 0
}

// Stats returns the current counters
func (c *ExportCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
