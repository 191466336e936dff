// Package cache 提供 core.ResultCache 的几种实现: 内存、SQLite(gorm)、Redis
package cache

import (
	"context"
	"sync"
)

// MemoryCache 进程内缓存，重启即丢失
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Lookup(_ context.Context, query string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[query]
	return v, ok, nil
}

func (c *MemoryCache) Store(_ context.Context, query, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = value
	return nil
}

// Len 返回条目数
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
