package fdetect

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrUnknownMaterial = errors.New("unknown material")

// CrossSectionCalculator provides macroscopic cross sections per process.
// Implementations must be safe for concurrent reads.
type CrossSectionCalculator interface {
	Processes() []string
	// CrossSectionPerVolume returns the cross section in mm^-1.
	CrossSectionPerVolume(energy Real, process, material string) (Real, error)
}

// AttenuationTable holds mu(material, energy) in mm^-1.
// Rows are energies, columns are materials; the last material is the world.
type AttenuationTable struct {
	Materials []string
	Axis      EnergyAxis
	mu        []Real // flat: e*len(Materials) + m
}

// NewAttenuationTable sums the cross sections of every process except
// multiple scattering for each (material, energy) pair.
func NewAttenuationTable(calc CrossSectionCalculator, materials []string, axis EnergyAxis) (*AttenuationTable, error) {
	if axis.Len() == 0 {
		return nil, ErrEmptyEnergyAxis
	}
	if len(materials) == 0 {
		return nil, errors.New("attenuation table needs at least the world material")
	}
	if calc == nil {
		return nil, errors.New("nil cross-section calculator")
	}
	processes := make([]string, 0)
	for _, p := range calc.Processes() {
		if p != MultipleScattering {
			processes = append(processes, p)
		}
	}
	if len(processes) == 0 {
		return nil, errors.New("no electromagnetic process to build the attenuation table from")
	}

	start := time.Now()
	nm := len(materials)
	t := &AttenuationTable{
		Materials: append([]string(nil), materials...),
		Axis:      axis,
		mu:        make([]Real, nm*axis.Len()),
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for e := 0; e < axis.Len(); e++ {
		g.Go(func() error {
			energy := axis.Energies[e]
			row := t.mu[e*nm : (e+1)*nm]
			for m, mat := range t.Materials {
				mu := 0.0
				for _, p := range processes {
					xs, err := calc.CrossSectionPerVolume(energy, p, mat)
					if err != nil {
						return fmt.Errorf("material %q, process %q at %g MeV: %w", mat, p, energy, err)
					}
					mu += xs
				}
				if mu < 0 || !isFinite(mu) {
					return fmt.Errorf("material %q at %g MeV: invalid attenuation %g", mat, energy, mu)
				}
				row[m] = mu
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	DebugLog("Computation of the mu lookup table (%d materials x %d energies, %d processes) took %s", nm, axis.Len(), len(processes), time.Since(start))
	return t, nil
}

// NumMaterials includes the world material.
func (t *AttenuationTable) NumMaterials() int { return len(t.Materials) }

// World is the column index of the enclosing world material.
func (t *AttenuationTable) World() int { return len(t.Materials) - 1 }

// Row returns the attenuation coefficients of every material at energy row e.
// The slice aliases the table and must not be modified.
func (t *AttenuationTable) Row(e int) []Real {
	nm := len(t.Materials)
	return t.mu[e*nm : (e+1)*nm : (e+1)*nm]
}

// Mu returns a single coefficient.
func (t *AttenuationTable) Mu(material, e int) Real {
	return t.Row(e)[material]
}

// MaterialIndex looks a material up by name.
func (t *AttenuationTable) MaterialIndex(name string) (int, error) {
	for i, m := range t.Materials {
		if m == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
}
