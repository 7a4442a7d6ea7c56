package devices

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Lister fetches the device directory and available scenes of a space.
// The IoT backend client implements it.
type Lister interface {
	ListDevices(ctx context.Context) ([]Device, error)
	ListScenes(ctx context.Context) ([]Scene, error)
}

// Cache wraps a Lister with a TTL cache so that one conversational turn,
// which may consult the directory several times, hits the backend at most
// once per expiry window.
type Cache struct {
	lister Lister
	ttl    time.Duration

	mu             sync.Mutex
	devices        []Device
	devicesFetched time.Time
	scenes         []Scene
	scenesFetched  time.Time
}

// NewCache builds a directory cache. A non-positive ttl disables caching.
func NewCache(lister Lister, ttl time.Duration) *Cache {
	return &Cache{lister: lister, ttl: ttl}
}

// ListDevices returns the cached directory, refreshing it when stale.
func (c *Cache) ListDevices(ctx context.Context) ([]Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.devices != nil && c.fresh(c.devicesFetched) {
		return c.devices, nil
	}
	devs, err := c.lister.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("devices: list devices: %w", err)
	}
	c.devices = devs
	c.devicesFetched = time.Now()
	return devs, nil
}

// ListScenes returns the cached scene list, refreshing it when stale.
func (c *Cache) ListScenes(ctx context.Context) ([]Scene, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scenes != nil && c.fresh(c.scenesFetched) {
		return c.scenes, nil
	}
	scenes, err := c.lister.ListScenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("devices: list scenes: %w", err)
	}
	c.scenes = scenes
	c.scenesFetched = time.Now()
	return scenes, nil
}

// Invalidate drops the cached directory and scenes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices = nil
	c.scenes = nil
}

func (c *Cache) fresh(fetched time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return time.Since(fetched) < c.ttl
}
