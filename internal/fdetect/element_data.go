package fdetect

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

var ErrMissingData = errors.New("missing tabulated data")

// ElementLookup is a per-element tabulated quantity: a scattering function or
// form factor of the momentum transfer, or a cross section of the energy.
type ElementLookup interface {
	HasElement(z int) bool
	Value(z int, x Real) Real
}

// ElementData maps an atomic number to its curve.
type ElementData map[int]*Curve

func (d ElementData) HasElement(z int) bool {
	_, ok := d[z]
	return ok
}

// Value panics on a missing element; callers check HasElement at configuration time.
func (d ElementData) Value(z int, x Real) Real {
	return d[z].Value(x)
}

// LoadElementData reads <dir>/<prefix><Z>.dat for every requested element,
// e.g. prefix "comp/ce-sf-" for incoherent scattering functions.
func LoadElementData(dir, prefix string, zs []int) (ElementData, error) {
	d := make(ElementData, len(zs))
	for _, z := range zs {
		if z < 1 || z > 100 {
			return nil, fmt.Errorf("atomic number out of range: %d", z)
		}
		path := filepath.Join(dir, prefix+strconv.Itoa(z)+".dat")
		c, err := LoadCurve(path, LogLog)
		if err != nil {
			return nil, fmt.Errorf("%w: Z=%d: %v", ErrMissingData, z, err)
		}
		d[z] = c
	}
	return d, nil
}

// TabulatedCalculator serves macroscopic cross sections (mm^-1) from curves
// indexed by process then material.
type TabulatedCalculator struct {
	processes []string
	curves    map[string]map[string]*Curve
}

func NewTabulatedCalculator() *TabulatedCalculator {
	return &TabulatedCalculator{curves: make(map[string]map[string]*Curve)}
}

// Set registers (or replaces) the curve of one process in one material.
func (t *TabulatedCalculator) Set(process, material string, c *Curve) {
	byMat, ok := t.curves[process]
	if !ok {
		byMat = make(map[string]*Curve)
		t.curves[process] = byMat
		t.processes = append(t.processes, process)
	}
	byMat[material] = c
}

func (t *TabulatedCalculator) Processes() []string { return t.processes }

func (t *TabulatedCalculator) CrossSectionPerVolume(energy Real, process, material string) (Real, error) {
	byMat, ok := t.curves[process]
	if !ok {
		return 0, fmt.Errorf("%w: process %q", ErrMissingData, process)
	}
	c, ok := byMat[material]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no %q data", ErrUnknownMaterial, material, process)
	}
	return c.Value(energy), nil
}
