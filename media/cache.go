package media

import (
	"container/list"
)

// Entry is cached acquisition result: either an image or the error which
// stopped acquisition.
type Entry struct {
	Image *Image
	Err   error
}

type cacheItem struct {
	key   string
	entry Entry
	size  int64
}

// Cache is LRU cache bounded by number of entries and total size of image
// data. Failures take a slot but no bytes. It is not safe for concurrent use,
// renders are single threaded.
type Cache struct {
	maxEntries int
	maxBytes   int64

	bytes     int64
	evictions int
	ll        *list.List
	items     map[string]*list.Element
}

// NewCache creates cache, zero bound means unlimited.
func NewCache(maxEntries int, maxBytes int64) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get returns entry and marks it as most recently used.
func (c *Cache) Get(key string) (Entry, bool) {
	el, ok := c.items[key]
	if !ok {
		return Entry{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheItem).entry, true
}

// Put stores successfully acquired image. Images larger than the whole byte
// budget are not stored. Returns false if image was not cached.
func (c *Cache) Put(key string, img *Image) bool {
	size := img.size()
	if c.maxBytes > 0 && size > c.maxBytes {
		c.remove(key)
		return false
	}
	c.put(key, Entry{Image: img}, size)
	return true
}

// PutFailure remembers failed acquisition so the same locator is not tried
// again during this render.
func (c *Cache) PutFailure(key string, err error) {
	c.put(key, Entry{Err: err}, 0)
}

func (c *Cache) put(key string, e Entry, size int64) {
	if el, ok := c.items[key]; ok {
		it := el.Value.(*cacheItem)
		c.bytes += size - it.size
		it.entry, it.size = e, size
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(&cacheItem{key: key, entry: e, size: size})
		c.bytes += size
	}
	c.evict()
}

func (c *Cache) evict() {
	for c.ll.Len() > 1 && c.over() {
		c.removeElement(c.ll.Back())
		c.evictions++
	}
}

func (c *Cache) over() bool {
	return (c.maxEntries > 0 && c.ll.Len() > c.maxEntries) || (c.maxBytes > 0 && c.bytes > c.maxBytes)
}

func (c *Cache) remove(key string) {
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	it := c.ll.Remove(el).(*cacheItem)
	delete(c.items, it.key)
	c.bytes -= it.size
}

// Len returns number of cached entries.
func (c *Cache) Len() int { return c.ll.Len() }

// Bytes returns total size of cached image data.
func (c *Cache) Bytes() int64 { return c.bytes }

// Evictions returns number of entries evicted so far.
func (c *Cache) Evictions() int { return c.evictions }
