package driver

import (
	"fmt"
	"sync/atomic"

	"github.com/dgryski/go-spooky"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"jscore/pkg/config"
)

// scriptCache memoizes compiled scripts by a hash of their text and of
// the options that shape the tree. A nil lru disables caching.
type scriptCache struct {
	lru          *lru.Cache
	hits, misses int64 // atomic
}

func newScriptCache(size int) (*scriptCache, error) {
	c := &scriptCache{}
	if size == 0 {
		return c, nil
	}
	l, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "creating compile cache")
	}
	c.lru = l
	return c, nil
}

// key fingerprints content together with the tree-shaping options.
func (c *scriptCache) key(content string, cfg *config.Config) uint64 {
	d := cfg.Destructuring
	fp := fmt.Sprintf("%s|%t|%t|%t|%d|%d|%d\x00", cfg.Version, cfg.Strict, cfg.Fold,
		cfg.RequireLiteralKeyPaths, d.StepHashThreshold, d.BigDestructuring, d.BigObjectInit)
	return spooky.Hash64(append([]byte(fp), content...))
}

func (c *scriptCache) get(key uint64) (*Script, bool) {
	if c.lru == nil {
		return nil, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return v.(*Script), true
}

func (c *scriptCache) add(key uint64, s *Script) {
	if c.lru != nil {
		c.lru.Add(key, s)
	}
}

func (c *scriptCache) stats() (hits, misses int64, n int) {
	if c.lru != nil {
		n = c.lru.Len()
	}
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), n
}
