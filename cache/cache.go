package cache

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// The cache holds objects that are expensive to load and are shared across
// shell commands, such as parsed benchmark suites. Objects are keyed by name,
// usually a file path.

type cache struct {
	sync.Mutex
	objects map[string]any
}

// GlobalObjectCache is the process-wide cache.
var GlobalObjectCache *cache

func (c *cache) get(key string, loadFunc func(string) (any, error)) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting-obj-from-cache")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("loading-into-cache")
	obj, err := loadFunc(key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

// Load returns the object cached under name, calling loadFunc to create it
// the first time. Failed loads are not cached.
func Load[T any](name string, loadFunc func(string) (T, error)) (T, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	obj, err := GlobalObjectCache.get(name, func(key string) (any, error) {
		return loadFunc(key)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return obj.(T), nil
}

// Evict drops name so that the next Load reads it again.
func Evict(name string) {
	if GlobalObjectCache == nil {
		return
	}
	GlobalObjectCache.Lock()
	defer GlobalObjectCache.Unlock()
	delete(GlobalObjectCache.objects, name)
}
