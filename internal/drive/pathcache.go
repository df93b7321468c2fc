package drive

import (
	"github.com/patrickmn/go-cache"
)

// PathCache maps folder ids to resolved canonical paths. Entries live for
// the process lifetime; a rename or move performed outside this engine is
// not observed, so stale entries persist until restart.
type PathCache struct {
	c *cache.Cache
}

// NewPathCache creates an empty PathCache.
func NewPathCache() *PathCache {
	return &PathCache{c: cache.New(cache.NoExpiration, 0)}
}

// Get returns the cached path for a folder id.
func (p *PathCache) Get(id string) (string, bool) {
	v, ok := p.c.Get(id)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Set stores the resolved path for a folder id.
func (p *PathCache) Set(id, path string) {
	p.c.Set(id, path, cache.NoExpiration)
}
