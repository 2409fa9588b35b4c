package fdetect

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrEmptyEnergyAxis = errors.New("energy axis is empty")

// EnergyAxis is the energy dimension of the attenuation table.
// A positive Spacing marks a uniform axis starting at 0.
type EnergyAxis struct {
	Energies []Real
	Spacing  Real
}

// UniformEnergyAxis returns 0, spacing, 2*spacing, ... up to the first value >= maxEnergy.
func UniformEnergyAxis(spacing, maxEnergy Real) (EnergyAxis, error) {
	if !(spacing > 0) || !isFinite(spacing) {
		return EnergyAxis{}, fmt.Errorf("energy spacing must be > 0, got %g", spacing)
	}
	if !(maxEnergy > 0) || !isFinite(maxEnergy) {
		return EnergyAxis{}, fmt.Errorf("%w: max energy %g", ErrEmptyEnergyAxis, maxEnergy)
	}
	n := int(math.Ceil(maxEnergy/spacing-1e-9)) + 1
	es := make([]Real, n)
	for i := range es {
		es[i] = Real(i) * spacing
	}
	return EnergyAxis{Energies: es, Spacing: spacing}, nil
}

// ExplicitEnergyAxis validates and copies an explicit, strictly increasing list.
func ExplicitEnergyAxis(energies []Real) (EnergyAxis, error) {
	if len(energies) == 0 {
		return EnergyAxis{}, ErrEmptyEnergyAxis
	}
	es := make([]Real, len(energies))
	copy(es, energies)
	for i, e := range es {
		if e < 0 || !isFinite(e) {
			return EnergyAxis{}, fmt.Errorf("energy #%d is invalid: %g", i, e)
		}
		if i > 0 && e <= es[i-1] {
			return EnergyAxis{}, fmt.Errorf("energy axis not strictly increasing at #%d: %g <= %g", i, e, es[i-1])
		}
	}
	return EnergyAxis{Energies: es}, nil
}

func (a EnergyAxis) Len() int { return len(a.Energies) }

func (a EnergyAxis) Uniform() bool { return a.Spacing > 0 }

// RowIndex maps an energy to the nearest row, clamped to the axis.
func (a EnergyAxis) RowIndex(energy Real) int {
	n := len(a.Energies)
	if a.Spacing > 0 {
		e := int(math.Round(energy / a.Spacing))
		if e < 0 {
			return 0
		}
		if e >= n {
			return n - 1
		}
		return e
	}
	i := sort.SearchFloat64s(a.Energies, energy)
	if i == 0 {
		return 0
	}
	if i == n {
		return n - 1
	}
	if energy-a.Energies[i-1] <= a.Energies[i]-energy {
		return i - 1
	}
	return i
}

// RowFor is RowIndex for configuration time: energies off the axis are an error.
func (a EnergyAxis) RowFor(energy Real) (int, error) {
	n := len(a.Energies)
	if n == 0 {
		return 0, ErrEmptyEnergyAxis
	}
	if energy < 0 || !isFinite(energy) {
		return 0, fmt.Errorf("invalid energy %g", energy)
	}
	tol := a.Spacing * 0.5
	if a.Spacing <= 0 && n > 1 {
		tol = (a.Energies[n-1] - a.Energies[n-2]) * 0.5
	}
	if energy > a.Energies[n-1]+tol {
		return 0, fmt.Errorf("energy %g MeV is above the attenuation table maximum %g MeV", energy, a.Energies[n-1])
	}
	return a.RowIndex(energy), nil
}
