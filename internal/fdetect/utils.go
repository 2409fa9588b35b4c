package fdetect

import (
	"math"
	"runtime"
)

func isFinite(x Real) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func defaultWorkers() int { return imax(runtime.NumCPU(), 1) }
