package fdetect

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Pixel is a handle to one detector pixel.
type Pixel int

// DetectorImage is the output of a cast. In energy-resolved mode every pixel
// owns Bins scalars laid out with a fixed stride of Nx*Ny.
// A pixel is written by a single worker for the duration of a cast.
type DetectorImage struct {
	Nx, Ny  int
	Bins    int
	BinSize Real // MeV; 0 for a scalar image
	Buf     []Real
}

// NewDetectorImage allocates a scalar image.
func NewDetectorImage(nx, ny int) (*DetectorImage, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("detector size must be positive, got %dx%d", nx, ny)
	}
	return &DetectorImage{Nx: nx, Ny: ny, Bins: 1, Buf: make([]Real, nx*ny)}, nil
}

// NewEnergyResolvedImage allocates bins of binSize MeV; bin b is centred on b*binSize.
func NewEnergyResolvedImage(nx, ny int, binSize, maxEnergy Real) (*DetectorImage, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("detector size must be positive, got %dx%d", nx, ny)
	}
	if !(binSize > 0) || !isFinite(binSize) {
		return nil, fmt.Errorf("energy bin size must be > 0, got %g", binSize)
	}
	if !(maxEnergy > 0) || !isFinite(maxEnergy) {
		return nil, fmt.Errorf("max energy must be > 0, got %g", maxEnergy)
	}
	bins := int(math.Floor(maxEnergy/binSize+0.5)) + 1
	return &DetectorImage{Nx: nx, Ny: ny, Bins: bins, BinSize: binSize, Buf: make([]Real, nx*ny*bins)}, nil
}

func (d *DetectorImage) EnergyResolved() bool { return d.BinSize > 0 }

func (d *DetectorImage) Stride() int { return d.Nx * d.Ny }

// PixelAt returns the handle of column i, row j.
func (d *DetectorImage) PixelAt(i, j int) Pixel { return Pixel(j*d.Nx + i) }

// Bin maps an energy to its bin, -1 when outside the stack.
// Scalar images always use bin 0.
func (d *DetectorImage) Bin(energy Real) int {
	if d.BinSize <= 0 {
		return 0
	}
	b := int(math.Floor(energy/d.BinSize + 0.5))
	if b < 0 || b >= d.Bins {
		return -1
	}
	return b
}

func (d *DetectorImage) index(p Pixel, bin int) int {
	if p < 0 || int(p) >= d.Stride() || bin < 0 || bin >= d.Bins {
		panic(fmt.Sprintf("detector access out of range: pixel %d bin %d (%dx%dx%d)", p, bin, d.Nx, d.Ny, d.Bins))
	}
	return bin*d.Stride() + int(p)
}

// Add deposits v at the bin of the given energy and reports whether it did.
// Energies outside the stack are dropped.
func (d *DetectorImage) Add(p Pixel, energy, v Real) bool {
	b := d.Bin(energy)
	if b < 0 {
		return false
	}
	d.Buf[d.index(p, b)] += v
	return true
}

// AddBin deposits v into an explicit bin.
func (d *DetectorImage) AddBin(p Pixel, bin int, v Real) {
	d.Buf[d.index(p, bin)] += v
}

// At returns the value of pixel p in bin b.
func (d *DetectorImage) At(p Pixel, bin int) Real { return d.Buf[d.index(p, bin)] }

// Slice returns bin b as an Nx*Ny view.
func (d *DetectorImage) Slice(bin int) []Real {
	s := d.Stride()
	return d.Buf[bin*s : (bin+1)*s : (bin+1)*s]
}

// Total sums every bin of every pixel.
func (d *DetectorImage) Total() Real { return floats.Sum(d.Buf) }

// Reset zeroes the image between projections.
func (d *DetectorImage) Reset() { clear(d.Buf) }
