package fdetect

import (
	"math"
	"testing"
)

func almostEq(a, b, eps Real) bool { return math.Abs(a-b) <= eps }

// constCalc returns a fixed mu per material for every energy, split evenly
// over its processes.
type constCalc struct {
	processes []string
	mu        map[string]Real
}

func (c constCalc) Processes() []string { return c.processes }

func (c constCalc) CrossSectionPerVolume(_ Real, process, material string) (Real, error) {
	if process == MultipleScattering {
		return 1e6, nil
	}
	mu, ok := c.mu[material]
	if !ok {
		return 0, ErrUnknownMaterial
	}
	n := 0
	for _, p := range c.processes {
		if p != MultipleScattering {
			n++
		}
	}
	return mu / Real(n), nil
}

// testTable builds a table for Water, Bone and the Air world on a 1 keV axis up to 150 keV.
func testTable(t *testing.T, water, bone, air Real) *AttenuationTable {
	t.Helper()
	axis, err := UniformEnergyAxis(0.001, 0.15)
	if err != nil {
		t.Fatalf("axis: %v", err)
	}
	calc := constCalc{
		processes: []string{"phot", "compt", MultipleScattering},
		mu:        map[string]Real{"Water": water, "Bone": bone, "Air": air},
	}
	tab, err := NewAttenuationTable(calc, []string{"Water", "Bone", "Air"}, axis)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tab
}

func constCurve(t *testing.T, v Real) *Curve {
	t.Helper()
	c, err := NewCurve([]Real{1e-3, 1e3}, []Real{v, v}, LogLog)
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	return c
}

func testSetup(t *testing.T, tab *AttenuationTable, img *DetectorImage, workers int) Setup {
	t.Helper()
	return Setup{
		Table:          tab,
		Workers:        workers,
		VolumeSpacing:  Vector3{1, 1, 1},
		Image:          img,
		EnergyResolved: img.EnergyResolved(),
		PixelSpacingU:  1,
		PixelSpacingV:  1,
		DetectorU:      Vector3{1, 0, 0},
		DetectorV:      Vector3{0, 1, 0},
	}
}

func mustImage(t *testing.T, nx, ny int) *DetectorImage {
	t.Helper()
	img, err := NewDetectorImage(nx, ny)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	return img
}

// worldRay is a ray of length l mm along +Z that never meets the volume.
func worldRay(l Real) *Ray {
	return &Ray{SourceToPixel: Vector3{0, 0, l}}
}
