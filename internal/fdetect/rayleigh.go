package fdetect

import (
	"errors"
	"fmt"
	"math"
)

// RayleighChannel is the coherent counterpart of ComptonChannel: Thomson
// cross section times the squared form factor, no energy loss.
type RayleighChannel struct {
	accumulation
	formFactor   ElementLookup // F(x, Z)
	crossSection ElementLookup // sigma(Z, E) in mm^2

	direction Vector3
	energy    Real
	row       int
	invWl     Real
	z         int
	// weight * r_e^2 / (2 sigma)
	eRadiusOverCrossSection Real
	configured              bool
}

func NewRayleighChannel(s Setup, formFactor, crossSection ElementLookup) (*RayleighChannel, error) {
	if formFactor == nil || crossSection == nil {
		return nil, fmt.Errorf("%w: rayleigh needs a form factor and a cross section", ErrMissingData)
	}
	a, err := newAccumulation(s, true)
	if err != nil {
		return nil, err
	}
	return &RayleighChannel{accumulation: a, formFactor: formFactor, crossSection: crossSection}, nil
}

func (c *RayleighChannel) SetDirection(d Vector3) error {
	u, err := unitDirection(d)
	if err != nil {
		return err
	}
	c.direction = u
	return nil
}

// Configure sets the scattering event. The scattered photon keeps the
// incident energy, so its attenuation row is resolved here once.
func (c *RayleighChannel) Configure(energy Real, z int, weight Real) error {
	if !(energy > 0) || !isFinite(energy) {
		return fmt.Errorf("rayleigh energy must be > 0, got %g", energy)
	}
	row, err := c.table.Axis.RowFor(energy)
	if err != nil {
		return err
	}
	if !c.formFactor.HasElement(z) {
		return fmt.Errorf("%w: no form factor for Z=%d", ErrMissingData, z)
	}
	cs, err := elementCrossSection(c.crossSection, z, energy)
	if err != nil {
		return err
	}
	c.energy = energy
	c.row = row
	c.invWl = math.Sqrt(0.5) * CM * energy / HPlanckC
	c.z = z
	c.eRadiusOverCrossSection = weight * (ClassicElectronRadius * ClassicElectronRadius) / (2 * cs)
	c.configured = true
	return nil
}

func (c *RayleighChannel) Validate() error {
	if !c.configured {
		return errors.New("rayleigh channel: Configure was not called")
	}
	if c.direction == (Vector3{}) {
		return errors.New("rayleigh channel: SetDirection was not called")
	}
	return nil
}

func (c *RayleighChannel) Evaluate(worker int, r *Ray) {
	defer c.reset(worker)
	if degenerate(r) {
		return
	}
	cosT := c.scatterCosine(c.direction, r)
	dcsThomson := c.eRadiusOverCrossSection * (1 + cosT*cosT)
	x := math.Sqrt(1-cosT) * c.invWl
	ff := c.formFactor.Value(c.z, x)
	dcs := dcsThomson * ff * ff

	w := c.finalizeWeights(worker, r.StepMM, c.worldVector(r).Len())
	tau := c.opticalDepth(w, c.row)
	c.deposit(worker, r.Pixel, math.Exp(-tau)*dcs*c.solidAngle.Of(r.SourceToPixel), c.energy)
}
