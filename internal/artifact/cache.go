package artifact

import (
	"container/list"
	"sync"

	"github.com/pagemill/pagemill/internal/scan"
)

// pictureCache is a size-bounded LRU of decoded pictures keyed by relative
// artifact path. It is advisory: a miss just costs a re-decode. Entry cost
// is the decoded pixel footprint, not the file size on disk.
type pictureCache struct {
	mu    sync.Mutex
	limit int64
	size  int64
	order *list.List // front = most recent, values are *cacheEntry
	byKey map[string]*list.Element
}

type cacheEntry struct {
	key  string
	pic  *scan.Picture
	cost int64
}

func newPictureCache(limit int64) *pictureCache {
	return &pictureCache{
		limit: limit,
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

func pictureCost(p *scan.Picture) int64 {
	b := p.Image.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}

func (c *pictureCache) get(key string) (*scan.Picture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).pic, true
}

func (c *pictureCache) put(key string, p *scan.Picture) {
	cost := pictureCost(p)
	if cost > c.limit {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		old := el.Value.(*cacheEntry)
		c.size += cost - old.cost
		old.pic, old.cost = p, cost
		c.order.MoveToFront(el)
	} else {
		c.byKey[key] = c.order.PushFront(&cacheEntry{key: key, pic: p, cost: cost})
		c.size += cost
	}

	for c.size > c.limit {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.evict(back)
	}
}

func (c *pictureCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		c.evict(el)
	}
}

func (c *pictureCache) evict(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	c.order.Remove(el)
	delete(c.byKey, entry.key)
	c.size -= entry.cost
}
