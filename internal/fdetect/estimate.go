package fdetect

import (
	"sync"
)

// estimateCoverage returns the fraction of detector rays that cross the volume.
func estimateCoverage(proj Projection, vol *Volume, workers int) Real {
	total := proj.Nu * proj.Nv
	if total == 0 {
		return 0
	}
	if workers < 1 {
		workers = 1
	}
	if workers > proj.Nv {
		workers = proj.Nv
	}

	per, rem := proj.Nv/workers, proj.Nv%workers
	var wg sync.WaitGroup
	hitsCh := make(chan int, workers)
	minP, maxP := vol.Bounds()
	src := vol.ToVoxel(proj.Source)

	row := 0
	for w := 0; w < workers; w++ {
		n := per
		if w < rem {
			n++
		}
		first := row
		row += n
		wg.Add(1)
		go func() {
			defer wg.Done()
			localHits := 0
			for j := first; j < first+n; j++ {
				for i := 0; i < proj.Nu; i++ {
					d := vol.ToVoxel(proj.PixelPosition(i, j)).Sub(src)
					if ok, _, _ := segmentAABB(src, d, minP, maxP); ok {
						localHits++
					}
				}
			}
			hitsCh <- localHits
		}()
	}

	wg.Wait()
	close(hitsCh)

	totalHits := 0
	for h := range hitsCh {
		totalHits += h
	}
	return Real(totalHits) / Real(total)
}
