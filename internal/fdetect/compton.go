package fdetect

import (
	"errors"
	"fmt"
	"math"
)

// ComptonChannel deposits the photons of one incoherent scattering event
// (energy, element, weight) that reach the pixel unscattered afterwards.
type ComptonChannel struct {
	accumulation
	scatterFunction ElementLookup // S(x, Z)
	crossSection    ElementLookup // sigma(Z, E) in mm^2

	direction Vector3 // incident photon direction, unit
	energy    Real
	e0m       Real // E / (m_e c^2)
	invWl     Real // sqrt(1/2) / wavelength, cm^-1
	z         int
	// weight * r_e^2 / (2 sigma)
	eRadiusOverCrossSection Real
	configured              bool
}

func NewComptonChannel(s Setup, scatterFunction, crossSection ElementLookup) (*ComptonChannel, error) {
	if scatterFunction == nil || crossSection == nil {
		return nil, fmt.Errorf("%w: compton needs a scattering function and a cross section", ErrMissingData)
	}
	a, err := newAccumulation(s, true)
	if err != nil {
		return nil, err
	}
	return &ComptonChannel{accumulation: a, scatterFunction: scatterFunction, crossSection: crossSection}, nil
}

// SetDirection sets the incident photon direction.
func (c *ComptonChannel) SetDirection(d Vector3) error {
	u, err := unitDirection(d)
	if err != nil {
		return err
	}
	c.direction = u
	return nil
}

// Configure sets the scattering event: incident energy (MeV), element and weight.
func (c *ComptonChannel) Configure(energy Real, z int, weight Real) error {
	if !(energy > 0) || !isFinite(energy) {
		return fmt.Errorf("compton energy must be > 0, got %g", energy)
	}
	if _, err := c.table.Axis.RowFor(energy); err != nil {
		return err
	}
	if !c.scatterFunction.HasElement(z) {
		return fmt.Errorf("%w: no incoherent scattering function for Z=%d", ErrMissingData, z)
	}
	cs, err := elementCrossSection(c.crossSection, z, energy)
	if err != nil {
		return err
	}
	c.energy = energy
	c.e0m = energy / ElectronMassC2
	c.invWl = math.Sqrt(0.5) * CM * energy / HPlanckC
	c.z = z
	c.eRadiusOverCrossSection = weight * (ClassicElectronRadius * ClassicElectronRadius) / (2 * cs)
	c.configured = true
	return nil
}

func (c *ComptonChannel) Validate() error {
	if !c.configured {
		return errors.New("compton channel: Configure was not called")
	}
	if c.direction == (Vector3{}) {
		return errors.New("compton channel: SetDirection was not called")
	}
	return nil
}

func (c *ComptonChannel) Evaluate(worker int, r *Ray) {
	defer c.reset(worker)
	if degenerate(r) {
		return
	}
	cosT := c.scatterCosine(c.direction, r)
	x := math.Sqrt(1-cosT) * c.invWl // 1-cosT = 2 sin^2(T/2)
	sf := c.scatterFunction.Value(c.z, x)

	// Klein-Nishina: P^2 (P + 1/P - sin^2 T), with P = E'/E
	eRatio := 1 / (1 + c.e0m*(1-cosT))
	dcsKleinNishina := c.eRadiusOverCrossSection * eRatio * (1 + eRatio*(eRatio-1+cosT*cosT))
	dcs := dcsKleinNishina * sf

	w := c.finalizeWeights(worker, r.StepMM, c.worldVector(r).Len())
	energy := eRatio * c.energy
	tau := c.opticalDepth(w, c.table.Axis.RowIndex(energy))
	c.deposit(worker, r.Pixel, math.Exp(-tau)*dcs*c.solidAngle.Of(r.SourceToPixel)*c.response.At(energy), energy)
}

func unitDirection(d Vector3) (Vector3, error) {
	l := d.Len()
	if !(l > 0) || !isFinite(l) {
		return Vector3{}, fmt.Errorf("direction must be a non-zero finite vector, got %+v", d)
	}
	return d.Mul(1 / l), nil
}

func elementCrossSection(cs ElementLookup, z int, energy Real) (Real, error) {
	if !cs.HasElement(z) {
		return 0, fmt.Errorf("%w: no cross section for Z=%d", ErrMissingData, z)
	}
	v := cs.Value(z, energy)
	if !(v > 0) || !isFinite(v) {
		return 0, fmt.Errorf("%w: cross section for Z=%d at %g MeV is %g", ErrMissingData, z, energy, v)
	}
	return v, nil
}
