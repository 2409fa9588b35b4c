package fdetect

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Ray is what the ray caster knows about the ray it just traversed.
// Points and SourceToPixel are in voxel units, StepMM in mm.
type Ray struct {
	Pixel         Pixel
	StepMM        Vector3 // traversal step
	Source        Vector3
	SourceToPixel Vector3
	Nearest       Vector3 // entry into the volume
	Farthest      Vector3 // exit from the volume
}

// Channel is driven by the ray caster: AddWeight for every traversed voxel,
// then a single Evaluate per ray from the same worker.
type Channel interface {
	AddWeight(worker int, stepLength, weight Real, material int)
	Evaluate(worker int, r *Ray)
	// Validate reports a configuration that Evaluate cannot run with.
	Validate() error
	Workers() int
	Statistics() *Statistics
	Image() *DetectorImage
}

// Setup is shared by every channel.
type Setup struct {
	Table         *AttenuationTable
	Workers       int
	VolumeSpacing Vector3 // mm per voxel
	Image         *DetectorImage
	// EnergyResolved deposits into the bin of the arrival energy, otherwise
	// into the single scalar of the pixel. Must match Image.
	EnergyResolved bool
	// Response weights the noisy primary and the Compton deposits; nil is 1.
	Response *EnergyResponse
	// Detector pixel spacing and in-plane axes, for the solid angle.
	// Unused by the primary channel.
	PixelSpacingU, PixelSpacingV Real
	DetectorU, DetectorV         Vector3
}

// accumulation is the state and protocol common to the channels.
type accumulation struct {
	table          *AttenuationTable
	weights        *WeightArena
	stats          *Statistics
	image          *DetectorImage
	spacing        Vector3
	energyResolved bool
	response       *EnergyResponse
	solidAngle     SolidAngle
}

func newAccumulation(s Setup, needSolidAngle bool) (accumulation, error) {
	if s.Table == nil {
		return accumulation{}, errors.New("channel needs an attenuation table")
	}
	if s.Image == nil {
		return accumulation{}, errors.New("channel needs a detector image")
	}
	if s.EnergyResolved != s.Image.EnergyResolved() {
		return accumulation{}, fmt.Errorf("energy-resolved flag %v does not match the detector image", s.EnergyResolved)
	}
	if !(s.VolumeSpacing.X > 0 && s.VolumeSpacing.Y > 0 && s.VolumeSpacing.Z > 0) {
		return accumulation{}, fmt.Errorf("volume spacing must be > 0, got %+v", s.VolumeSpacing)
	}
	w, err := NewWeightArena(s.Workers, s.Table.NumMaterials())
	if err != nil {
		return accumulation{}, err
	}
	a := accumulation{
		table:          s.Table,
		weights:        w,
		stats:          NewStatistics(s.Workers),
		image:          s.Image,
		spacing:        s.VolumeSpacing,
		energyResolved: s.EnergyResolved,
		response:       s.Response,
	}
	if needSolidAngle {
		a.solidAngle, err = NewSolidAngle(s.VolumeSpacing, s.PixelSpacingU, s.PixelSpacingV, s.DetectorU, s.DetectorV)
		if err != nil {
			return accumulation{}, err
		}
	}
	return a, nil
}

func (a *accumulation) AddWeight(worker int, stepLength, weight Real, material int) {
	a.weights.Add(worker, stepLength, weight, material)
}

func (a *accumulation) Workers() int { return a.weights.Workers() }

func (a *accumulation) Statistics() *Statistics { return a.stats }

// Image is the detector image deposits go to.
func (a *accumulation) Image() *DetectorImage { return a.image }

// worldVector spans the part of the ray outside the volume, in mm.
func (a *accumulation) worldVector(r *Ray) Vector3 {
	return r.SourceToPixel.Add(r.Nearest).Sub(r.Farthest).MulElem(a.spacing)
}

// finalizeWeights converts the worker's voxel weights to mm and fills the
// world slot with the out-of-volume length. The slot stays valid until reset.
func (a *accumulation) finalizeWeights(worker int, stepMM Vector3, worldLength Real) []Real {
	w := a.weights.Slot(worker)
	last := len(w) - 1
	floats.Scale(stepMM.Len(), w[:last])
	w[last] = worldLength
	return w
}

func (a *accumulation) reset(worker int) { a.weights.Reset(worker) }

// opticalDepth is sum_m length(m) * mu(m, E) for energy row e.
func (a *accumulation) opticalDepth(weights []Real, e int) Real {
	return floats.Dot(weights, a.table.Row(e))
}

// deposit adds v to the pixel (at the energy bin when energy-resolved) and to
// the worker's running statistics. Energies outside the bin stack count for
// neither.
func (a *accumulation) deposit(worker int, p Pixel, v, energy Real) {
	if a.energyResolved {
		if !a.image.Add(p, energy, v) {
			return
		}
	} else {
		a.image.AddBin(p, 0, v)
	}
	a.stats.add(worker, v)
}

// degenerate reports a zero-length ray; it contributes nothing.
func degenerate(r *Ray) bool {
	return r.SourceToPixel.Dot(r.SourceToPixel) == 0
}

// scatterCosine is the cosine between the incident direction and the ray,
// clamped against round-off.
func (a *accumulation) scatterCosine(direction Vector3, r *Ray) Real {
	p := r.SourceToPixel.MulElem(a.spacing)
	c := direction.Dot(p) / p.Len()
	if c > 1 {
		return 1
	}
	if c < -1 {
		return -1
	}
	return c
}
