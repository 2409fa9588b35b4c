package fdetect

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// PrimaryChannel integrates the unscattered source spectrum along each ray
// (Beer-Lambert), optionally with Poisson shot noise.
type PrimaryChannel struct {
	accumulation
	spectrum  Spectrum
	rows      []int // attenuation row per spectrum line
	primaries Real  // 0: noiseless
	srcs      []*rand.PCG
}

// NewPrimaryChannel resolves the table row of every spectrum line.
func NewPrimaryChannel(s Setup, spectrum Spectrum) (*PrimaryChannel, error) {
	a, err := newAccumulation(s, false)
	if err != nil {
		return nil, err
	}
	c := &PrimaryChannel{accumulation: a, spectrum: spectrum, rows: make([]int, spectrum.Len())}
	for i := range c.rows {
		if c.rows[i], err = s.Table.Axis.RowFor(spectrum.At(i).Energy); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetNumberOfPrimaries enables shot noise for n primaries per pixel (0 disables it).
// Each worker draws from its own PCG stream derived from seed; seed 0 uses the clock.
func (c *PrimaryChannel) SetNumberOfPrimaries(n int64, seed uint64) {
	c.primaries = Real(max(n, 0))
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	c.srcs = make([]*rand.PCG, c.Workers())
	for w := range c.srcs {
		c.srcs[w] = rand.NewPCG(seed, uint64(w)*SeedGolden)
	}
}

func (c *PrimaryChannel) Validate() error { return nil }

func (c *PrimaryChannel) Evaluate(worker int, r *Ray) {
	defer c.reset(worker)
	if degenerate(r) {
		return
	}
	w := c.finalizeWeights(worker, r.StepMM, c.worldVector(r).Len())
	for i, row := range c.rows {
		line := c.spectrum.At(i)
		t := math.Exp(-c.opticalDepth(w, row))
		v := t * line.Weight
		// the noiseless image is the exact transmission, without detector response
		if c.primaries > 0 {
			v = c.noisy(worker, line.Weight, t) * line.Weight * c.response.At(line.Energy)
		}
		c.deposit(worker, r.Pixel, v, line.Energy)
	}
}

// noisy draws the number of primaries of this line reaching the pixel and
// normalizes it by the expected count without attenuation. The result is not
// an integer; its expectation is the transmitted fraction t.
func (c *PrimaryChannel) noisy(worker int, weight, t Real) Real {
	nprim := c.primaries * weight
	if nprim == 0 {
		return 0
	}
	lambda := nprim * t
	if !(lambda > 0) {
		return 0
	}
	n := distuv.Poisson{Lambda: lambda, Src: c.srcs[worker]}.Rand()
	return n / nprim
}
