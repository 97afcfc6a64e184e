// Package moonphase derives the moon phase index from a tithi and caches
// the matching illustration so it is loaded at most once.
package moonphase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gokulnk/panchanga/internal/models"
)

// Phases is the number of discrete phases in one lunar cycle.
const Phases = 30

// ErrNotFound reports that no asset exists for an index. Callers fall back
// to a placeholder; this is non-fatal.
var ErrNotFound = errors.New("moonphase: no asset for index")

// PhaseIndex maps a tithi to a phase index in [0, 29]. The waxing half runs
// 0 (new moon) to 14 (full); the waning half continues 15 back to 29.
func PhaseIndex(t models.Tithi) int {
	if t.Paksha == models.PakshaKrishna {
		return t.Number + 14
	}
	return t.Number - 1
}

// LoadFunc loads or derives the asset for a phase index. It may be slow and
// is always awaited; it must return ErrNotFound when no asset exists.
type LoadFunc func(ctx context.Context, index int) ([]byte, error)

// call tracks one in-flight load so concurrent callers share it.
type call struct {
	done  chan struct{}
	asset []byte
	err   error
}

// Cache is an exact-match cache keyed by phase index with a single in-flight
// load per key.
type Cache struct {
	load LoadFunc

	mu      sync.Mutex
	assets  map[int][]byte
	pending map[int]*call
}

// NewCache creates a cache backed by the given loader.
func NewCache(load LoadFunc) *Cache {
	return &Cache{
		load:    load,
		assets:  make(map[int][]byte),
		pending: make(map[int]*call),
	}
}

// Get returns the asset for index, loading it on a miss. Concurrent callers
// for the same index while a load is in flight wait for that load instead of
// triggering their own.
func (c *Cache) Get(ctx context.Context, index int) ([]byte, error) {
	if index < 0 || index >= Phases {
		return nil, ErrNotFound
	}

	c.mu.Lock()
	if asset, ok := c.assets[index]; ok {
		c.mu.Unlock()
		return asset, nil
	}
	if p, ok := c.pending[index]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.done:
			return p.asset, p.err
		}
	}
	p := &call{done: make(chan struct{})}
	c.pending[index] = p
	c.mu.Unlock()

	p.asset, p.err = c.load(ctx, index)

	c.mu.Lock()
	delete(c.pending, index)
	if p.err == nil {
		c.assets[index] = p.asset
	}
	c.mu.Unlock()
	close(p.done)

	return p.asset, p.err
}

// Clear empties the cache unconditionally, e.g. on memory pressure.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.assets = make(map[int][]byte)
	c.mu.Unlock()
}

// DirLoader loads moon-phase-<index>.png files from dir.
func DirLoader(dir string) LoadFunc {
	return func(_ context.Context, index int) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("moon-phase-%d.png", index)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

// Glyph returns a single-rune depiction of a phase index, the universal
// placeholder when no asset is available.
func Glyph(index int) string {
	glyphs := []string{"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘"}
	if index < 0 || index >= Phases {
		return glyphs[0]
	}
	// 30 phases collapse onto 8 glyphs, full moon at index 15.
	return glyphs[(index*8+15)/30%8]
}
