// Package starcache remembers every post recently shown to a user so it can
// be starred by id alone.
package starcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/qepting91/reddit-grid/internal/domain"
)

type entry struct {
	post       domain.Post
	recordedAt time.Time
}

// Cache maps post id to the last recorded post. Reads take a shared lock;
// Record and Sweep take the exclusive one. Entries are kept in the order they
// were last recorded so the oldest go first when a bound is hit.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List
}

// New returns a cache that drops entries older than ttl on Sweep and keeps at
// most maxEntries. Zero disables either bound.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Record upserts posts by id. A later record replaces an earlier one with the
// same id and counts as fresh.
func (c *Cache) Record(posts ...domain.Post) {
	if len(posts) == 0 {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range posts {
		e := &entry{post: p.Clone(), recordedAt: now}
		if el, ok := c.entries[p.ID]; ok {
			el.Value = e
			c.order.MoveToBack(el)
			continue
		}
		c.entries[p.ID] = c.order.PushBack(e)
	}

	if c.maxEntries > 0 {
		for c.order.Len() > c.maxEntries {
			c.removeOldest()
		}
	}
}

// Lookup returns a copy of the post recorded under id. It never changes what
// is evicted next.
func (c *Cache) Lookup(id string) (domain.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.entries[id]
	if !ok {
		return domain.Post{}, false
	}
	return el.Value.(*entry).post.Clone(), true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Sweep removes entries recorded more than ttl ago and reports how many went.
func (c *Cache) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}
	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for {
		front := c.order.Front()
		if front == nil || front.Value.(*entry).recordedAt.After(cutoff) {
			return removed
		}
		c.removeOldest()
		removed++
	}
}

func (c *Cache) removeOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	c.order.Remove(front)
	delete(c.entries, front.Value.(*entry).post.ID)
}
