package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// store is a TTL map with a background sweeper shared by the in-memory types
type store struct {
	mu        sync.Mutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newStore(sweepEvery time.Duration) *store {
	s := &store{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(sweepEvery)
	return s
}

func (s *store) cleanupLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}

func (s *store) close() {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
}

// Size returns the number of stored entries, expired ones included until swept
func (s *store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// InMemoryAssetCache implements AssetCache in process memory
type InMemoryAssetCache struct {
	*store
}

// NewInMemoryAssetCache creates an in-memory cache swept once a minute
func NewInMemoryAssetCache() *InMemoryAssetCache {
	return &InMemoryAssetCache{store: newStore(time.Minute)}
}

// Get implements AssetCache
func (c *InMemoryAssetCache) Get(_ context.Context, ref string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[ref]
	if !ok || e.expired(time.Now()) {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set implements AssetCache
func (c *InMemoryAssetCache) Set(_ context.Context, ref string, data []byte, ttl time.Duration) error {
	value := make([]byte, len(data))
	copy(value, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ref] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Close implements AssetCache. Safe to call multiple times.
func (c *InMemoryAssetCache) Close() error {
	c.close()
	return nil
}

// InMemoryExportLock implements ExportLock for a single process
type InMemoryExportLock struct {
	*store
}

// NewInMemoryExportLock creates an in-process export lock
func NewInMemoryExportLock() *InMemoryExportLock {
	return &InMemoryExportLock{store: newStore(time.Minute)}
}

// Acquire implements ExportLock
func (l *InMemoryExportLock) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok && !e.expired(time.Now()) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.entries[key] = entry{value: []byte(token), expiresAt: time.Now().Add(ttl)}
	return token, true, nil
}

// Release implements ExportLock
func (l *InMemoryExportLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok || string(e.value) != token {
		return ErrLockNotHeld
	}
	delete(l.entries, key)
	return nil
}

// Close implements ExportLock. Safe to call multiple times.
func (l *InMemoryExportLock) Close() error {
	l.close()
	return nil
}

var (
	_ AssetCache = (*InMemoryAssetCache)(nil)
	_ ExportLock = (*InMemoryExportLock)(nil)
)
