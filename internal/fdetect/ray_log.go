package fdetect

import (
	"fmt"
	"sort"
	"sync"
)

type Category uint8

const (
	Traversed  Category = iota // ray crossed the volume
	MissVolume                 // ray only travelled through the world material
	Degenerate                 // zero-length ray, no contribution
)

// maxLogsPerName bounds memory in long debug runs.
const maxLogsPerName = 4096

type RayLog struct {
	Name     string
	Category Category
	Pixel    Pixel
	InVolume Real // mm travelled inside the volume
	World    Real // mm travelled in the world material
}

type RayLogCache struct {
	mu    sync.Mutex
	rays  map[string][]RayLog // map of ray name to logs
	count map[string]int
}

var cache = &RayLogCache{
	rays:  make(map[string][]RayLog),
	count: make(map[string]int),
}

func logRay(name string, category Category, pixel Pixel, inVolume, world Real) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.count[name]++
	if len(cache.rays[name]) >= maxLogsPerName {
		return
	}
	cache.rays[name] = append(cache.rays[name], RayLog{
		Name:     name,
		Category: category,
		Pixel:    pixel,
		InVolume: inVolume,
		World:    world,
	})
}

func raysStats() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	names := make([]string, 0, len(cache.count))
	for k := range cache.count {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("Ray type %s: %d rays (%d logged)\n", k, cache.count[k], len(cache.rays[k]))
	}
}
