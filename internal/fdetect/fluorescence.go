package fdetect

import (
	"errors"
	"fmt"
	"math"
)

// FluorescenceChannel deposits an isotropic emission line.
type FluorescenceChannel struct {
	accumulation
	energy     Real
	weight     Real
	row        int
	configured bool
}

func NewFluorescenceChannel(s Setup) (*FluorescenceChannel, error) {
	a, err := newAccumulation(s, true)
	if err != nil {
		return nil, err
	}
	return &FluorescenceChannel{accumulation: a}, nil
}

// Configure sets the line energy (MeV) and its weight.
func (c *FluorescenceChannel) Configure(energy, weight Real) error {
	if !(energy > 0) || !isFinite(energy) {
		return fmt.Errorf("fluorescence energy must be > 0, got %g", energy)
	}
	row, err := c.table.Axis.RowFor(energy)
	if err != nil {
		return err
	}
	c.energy, c.weight, c.row = energy, weight, row
	c.configured = true
	return nil
}

func (c *FluorescenceChannel) Validate() error {
	if !c.configured {
		return errors.New("fluorescence channel: Configure was not called")
	}
	return nil
}

func (c *FluorescenceChannel) Evaluate(worker int, r *Ray) {
	defer c.reset(worker)
	if degenerate(r) {
		return
	}
	w := c.finalizeWeights(worker, r.StepMM, c.worldVector(r).Len())
	tau := c.opticalDepth(w, c.row)
	v := c.weight * math.Exp(-tau) * c.solidAngle.Of(r.SourceToPixel) / (4 * math.Pi)
	c.deposit(worker, r.Pixel, v, c.energy)
}
