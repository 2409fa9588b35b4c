package fdetect

import "fmt"

// WeightArena holds, per worker, the path length travelled in each material
// by the ray currently in flight. Slot w is only touched by worker w.
type WeightArena struct {
	slots [][]Real
}

// NewWeightArena sizes one slot per worker; nMaterials includes the world.
func NewWeightArena(workers, nMaterials int) (*WeightArena, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be > 0, got %d", workers)
	}
	if nMaterials <= 0 {
		return nil, fmt.Errorf("material count must be > 0, got %d", nMaterials)
	}
	a := &WeightArena{slots: make([][]Real, workers)}
	for w := range a.slots {
		a.slots[w] = make([]Real, nMaterials)
	}
	return a, nil
}

func (a *WeightArena) Workers() int { return len(a.slots) }

// Add accumulates stepLength*weight for a traversed voxel of the given material.
func (a *WeightArena) Add(worker int, stepLength, weight Real, material int) {
	a.slots[worker][material] += stepLength * weight
}

// Slot exposes the worker's weights; valid until the next Reset.
func (a *WeightArena) Slot(worker int) []Real { return a.slots[worker] }

// Reset zeroes the worker's slot for its next ray.
func (a *WeightArena) Reset(worker int) {
	clear(a.slots[worker])
}
