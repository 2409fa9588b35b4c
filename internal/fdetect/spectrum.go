package fdetect

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

// SpectrumLine is one (energy, weight) pair of a source spectrum.
type SpectrumLine struct {
	Energy Real `json:"energy"` // MeV
	Weight Real `json:"weight"`
}

// Spectrum is an immutable ordered list of lines.
type Spectrum struct {
	lines []SpectrumLine
}

func NewSpectrum(lines []SpectrumLine) (Spectrum, error) {
	if len(lines) == 0 {
		return Spectrum{}, errors.New("spectrum is empty")
	}
	for i, l := range lines {
		if !(l.Energy > 0) || !isFinite(l.Energy) {
			return Spectrum{}, fmt.Errorf("spectrum line #%d: energy must be > 0, got %g", i, l.Energy)
		}
		if l.Weight < 0 || !isFinite(l.Weight) {
			return Spectrum{}, fmt.Errorf("spectrum line #%d: weight must be >= 0, got %g", i, l.Weight)
		}
	}
	return Spectrum{lines: append([]SpectrumLine(nil), lines...)}, nil
}

// LoadSpectrum reads a two-column (energy MeV, weight) file.
func LoadSpectrum(path string) (Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spectrum{}, err
	}
	defer f.Close()
	es, ws, err := readPairs(f)
	if err != nil {
		return Spectrum{}, fmt.Errorf("%s: %w", path, err)
	}
	lines := make([]SpectrumLine, len(es))
	for i := range es {
		lines[i] = SpectrumLine{Energy: es[i], Weight: ws[i]}
	}
	return NewSpectrum(lines)
}

func (s Spectrum) Len() int { return len(s.lines) }

func (s Spectrum) At(i int) SpectrumLine { return s.lines[i] }

// TotalWeight is the sum of the line weights.
func (s Spectrum) TotalWeight() Real {
	ws := make([]Real, len(s.lines))
	for i, l := range s.lines {
		ws[i] = l.Weight
	}
	return floats.Sum(ws)
}

// MaxEnergy is the highest line energy.
func (s Spectrum) MaxEnergy() Real {
	m := 0.0
	for _, l := range s.lines {
		m = max(m, l.Energy)
	}
	return m
}
