package fdetect

import (
	"fmt"
	"math"
)

// Geometry is a circular cone-beam gantry rotating around the Y axis through
// the world origin (isocenter).
type Geometry struct {
	SourceToIso      Real // mm
	SourceToDetector Real // mm
	Nu, Nv           int  // detector columns, rows
	Du, Dv           Real // pixel spacing, mm
	Angles           []Real
	Tilt             Real
	// Emission, when set, replaces the focal spot as the origin of every ray
	// (interaction point of a scatter or fluorescence event).
	Emission *Vector3
}

// Projection is one gantry position.
type Projection struct {
	Angle          Real
	Source         Vector3 // ray origin, mm
	DetectorCenter Vector3
	U, V           Vector3 // unit detector axes
	Nu, Nv         int
	Du, Dv         Real
}

func (g *Geometry) Validate() error {
	if g.Nu <= 0 || g.Nv <= 0 {
		return fmt.Errorf("detector size must be positive, got %dx%d", g.Nu, g.Nv)
	}
	if !(g.Du > 0 && g.Dv > 0) {
		return fmt.Errorf("detector spacing must be > 0, got %gx%g", g.Du, g.Dv)
	}
	if !(g.SourceToIso > 0) || !(g.SourceToDetector > g.SourceToIso) {
		return fmt.Errorf("need 0 < source-to-iso (%g) < source-to-detector (%g)", g.SourceToIso, g.SourceToDetector)
	}
	if len(g.Angles) == 0 {
		return fmt.Errorf("geometry has no projection angle")
	}
	return nil
}

// Projection returns gantry position k.
func (g *Geometry) Projection(k int) Projection {
	R := gantryRotation(g.Angles[k], g.Tilt)
	src := R.MulVec(Vector3{0, 0, -g.SourceToIso})
	if g.Emission != nil {
		src = *g.Emission
	}
	return Projection{
		Angle:          g.Angles[k],
		Source:         src,
		DetectorCenter: R.MulVec(Vector3{0, 0, g.SourceToDetector - g.SourceToIso}),
		U:              R.MulVec(Vector3{1, 0, 0}),
		V:              R.MulVec(Vector3{0, 1, 0}),
		Nu:             g.Nu,
		Nv:             g.Nv,
		Du:             g.Du,
		Dv:             g.Dv,
	}
}

// PixelPosition returns the world position (mm) of the centre of pixel (i, j).
func (p Projection) PixelPosition(i, j int) Vector3 {
	ou := (Real(i) - 0.5*Real(p.Nu-1)) * p.Du
	ov := (Real(j) - 0.5*Real(p.Nv-1)) * p.Dv
	return p.DetectorCenter.Add(p.U.Mul(ou)).Add(p.V.Mul(ov))
}

// EvenAngles spreads n projections over arcDeg degrees starting at startDeg.
func EvenAngles(n int, startDeg, arcDeg Real) []Real {
	out := make([]Real, n)
	for k := range out {
		out[k] = (startDeg + arcDeg*Real(k)/Real(n)) * math.Pi / 180
	}
	return out
}
