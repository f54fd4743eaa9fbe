// Package cache is a keyed store of timestamped values persisted as one JSON
// file per cache instance.
//
// The file holds a single object {key: {"value": ..., "timestamp": <unix ms>}}
// and is rewritten wholesale on every flush. There is no expiry and no
// eviction; callers embed a version token in keys and bump it to invalidate.
// Disk failures are logged and degrade to misses or no-ops.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

// Entry is a cached value and the unix-millisecond time it was written.
type Entry[T any] struct {
	Value     T     `json:"value"`
	Timestamp int64 `json:"timestamp"`
}

// Time returns the write time of e.
func (e Entry[T]) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// Cache is an in-process, mutex-guarded map mirrored to a JSON file.
// There is no cross-process locking; the last writer wins on disk.
type Cache[T any] struct {
	path string
	opts options

	mu      sync.RWMutex
	entries map[string]Entry[T]
}

// Key joins the printed form of parts with "|".
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "|")
}

// New creates an empty cache backed by the file at path. Call Open to load it.
func New[T any](path string, opts ...Option) *Cache[T] {
	o := options{
		name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		log:  logger.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		path:    path,
		opts:    o,
		entries: make(map[string]Entry[T]),
	}
}

// Open loads the backing file. A missing file is an empty cache; an unreadable
// or corrupt file is logged and also yields an empty cache.
func (c *Cache[T]) Open(ctx context.Context) error {
	loaded, err := c.read()
	if err != nil {
		c.opts.log.Warn(ctx, "cache file unreadable, starting empty",
			logger.String("cache", c.opts.name), logger.String("path", c.path), logger.Error(err))
		metrics.RecordErrorByComponent("cache", "load")
		loaded = make(map[string]Entry[T])
	}

	c.mu.Lock()
	c.entries = loaded
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(c.opts.name, n)
	c.opts.log.Debug(ctx, "cache opened", logger.String("cache", c.opts.name), logger.Int("entries", n))
	return nil
}

// Close flushes the cache to disk.
func (c *Cache[T]) Close(ctx context.Context) error {
	return c.SaveToDisk(ctx)
}

// Get returns the value stored under key.
func (c *Cache[T]) Get(key string) (T, bool) {
	e, ok := c.Entry(key)
	return e.Value, ok
}

// GetFresh returns the value under key when it is younger than maxAge.
func (c *Cache[T]) GetFresh(key string, maxAge time.Duration) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.opts.now().Sub(e.Time()) >= maxAge {
		ok = false
	}
	metrics.RecordCacheLookup(c.opts.name, ok)
	if !ok {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Entry returns the stored entry under key, including its timestamp.
func (c *Cache[T]) Entry(key string) (Entry[T], bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	metrics.RecordCacheLookup(c.opts.name, ok)
	return e, ok
}

// Set stores value under key stamped with the current time, replacing any previous entry.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.entries[key] = Entry[T]{Value: value, Timestamp: c.opts.now().UnixMilli()}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(c.opts.name, n)
	if c.opts.writeThrough {
		_ = c.SaveToDisk(context.Background())
	}
}

// Len returns the number of entries held.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SaveToDisk rewrites the backing file with every entry. Failures are logged
// and returned; the in-memory state is unaffected.
func (c *Cache[T]) SaveToDisk(ctx context.Context) error {
	err := c.write()
	metrics.RecordCacheFlush(c.opts.name, err == nil)
	if err != nil {
		c.opts.log.Error(ctx, "cache flush failed",
			logger.String("cache", c.opts.name), logger.String("path", c.path), logger.Error(err))
		metrics.RecordErrorByComponent("cache", "flush")
		return err
	}
	return nil
}

func (c *Cache[T]) read() (map[string]Entry[T], error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]Entry[T]), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	entries := make(map[string]Entry[T])
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, c.path, err)
	}
	return entries, nil
}

func (c *Cache[T]) write() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrFlush, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}
	return nil
}
