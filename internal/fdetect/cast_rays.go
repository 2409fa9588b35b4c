package fdetect

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// traceRay clips the ray from the projection source to pixel (i, j) against
// the volume and walks it with midpoint sampling, feeding every sample to the
// channel before evaluating it.
func traceRay(worker int, proj *Projection, vol *Volume, ch Channel, stepVoxels Real, i, j int, r *Ray) {
	src := vol.ToVoxel(proj.Source)
	s2p := vol.ToVoxel(proj.PixelPosition(i, j)).Sub(src)
	*r = Ray{
		Pixel:         ch.Image().PixelAt(i, j),
		Source:        src,
		SourceToPixel: s2p,
		Nearest:       src,
		Farthest:      src,
	}
	if s2p.Dot(s2p) == 0 {
		if Debug {
			logRay("degenerate", Degenerate, r.Pixel, 0, 0)
		}
		ch.Evaluate(worker, r)
		return
	}

	minP, maxP := vol.Bounds()
	ok, t0, t1 := segmentAABB(src, s2p, minP, maxP)
	ok = ok && len(vol.Labels) > 0
	if ok {
		r.Nearest = src.Add(s2p.Mul(t0))
		r.Farthest = src.Add(s2p.Mul(t1))
		seg := r.Farthest.Sub(r.Nearest)
		n := int(math.Ceil(seg.Len() / stepVoxels))
		if n < 1 {
			n = 1
		}
		step := seg.Mul(1 / Real(n))
		r.StepMM = step.MulElem(vol.Spacing)
		for s := 0; s < n; s++ {
			p := r.Nearest.Add(step.Mul(Real(s) + 0.5))
			ch.AddWeight(worker, 1, 1, int(vol.nearest(p)))
		}
	}
	if Debug {
		inside := r.Farthest.Sub(r.Nearest).MulElem(vol.Spacing).Len()
		total := s2p.MulElem(vol.Spacing).Len()
		if ok {
			logRay("traversed", Traversed, r.Pixel, inside, total-inside)
		} else {
			logRay("miss_volume", MissVolume, r.Pixel, 0, total)
		}
	}
	ch.Evaluate(worker, r)
}

// Cast evaluates one ray per detector pixel of the projection. Detector rows
// are split between ch.Workers() goroutines, so every pixel is written by a
// single worker. Cancellation is checked between detector rows, never mid-ray.
func Cast(ctx context.Context, proj Projection, vol *Volume, ch Channel, stepVoxels Real) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	img := ch.Image()
	if img.Nx != proj.Nu || img.Ny != proj.Nv {
		return fmt.Errorf("detector image %dx%d does not match projection %dx%d", img.Nx, img.Ny, proj.Nu, proj.Nv)
	}
	if !(stepVoxels > 0) {
		return fmt.Errorf("step must be > 0 voxels, got %g", stepVoxels)
	}

	workers := ch.Workers()
	if workers > proj.Nv {
		DebugLogOnce("%d workers for %d detector rows, %d stay idle", workers, proj.Nv, workers-proj.Nv)
	}
	totalRays := proj.Nu * proj.Nv
	base, rem := proj.Nv/workers, proj.Nv%workers

	var counter int64
	nextPrint := int64(1)
	if totalRays >= 100 {
		nextPrint = int64(totalRays / 100) // ~1%
	}

	g, ctx := errgroup.WithContext(ctx)
	row := 0
	for w := 0; w < workers; w++ {
		// first 'rem' workers take one extra detector row
		n := base
		if w < rem {
			n++
		}
		wid, first := w, row
		row += n
		if n == 0 {
			continue
		}
		g.Go(func() error {
			var r Ray
			for j := first; j < first+n; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := 0; i < proj.Nu; i++ {
					traceRay(wid, &proj, vol, ch, stepVoxels, i, j, &r)
				}
				fired := atomic.AddInt64(&counter, int64(proj.Nu))
				if Debug && fired/nextPrint != (fired-int64(proj.Nu))/nextPrint {
					fmt.Printf("[PROGRESS] %.2f%%\n", Real(fired)*100/Real(totalRays))
				}
			}
			return nil
		})
	}
	return g.Wait()
}
