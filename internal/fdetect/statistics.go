package fdetect

// statSlot is padded to a cache line so neighbouring workers do not false-share.
type statSlot struct {
	sum, squared Real
	_            [48]byte
}

// Statistics keeps a per-worker running sum and sum of squares of every
// deposited value. Slots are merged only after all workers are done.
type Statistics struct {
	slots []statSlot
}

func NewStatistics(workers int) *Statistics {
	return &Statistics{slots: make([]statSlot, imax(workers, 1))}
}

func (s *Statistics) add(worker int, v Real) {
	sl := &s.slots[worker]
	sl.sum += v
	sl.squared += v * v
}

// IntegralAndReset returns the merged sum over all workers and zeroes it.
func (s *Statistics) IntegralAndReset() Real {
	result := 0.0
	for i := range s.slots {
		result += s.slots[i].sum
		s.slots[i].sum = 0
	}
	return result
}

// SquaredIntegralAndReset returns the merged sum of squares and zeroes it.
func (s *Statistics) SquaredIntegralAndReset() Real {
	result := 0.0
	for i := range s.slots {
		result += s.slots[i].squared
		s.slots[i].squared = 0
	}
	return result
}
