package fdetect

import (
	"fmt"
	"math"
)

// SolidAngle estimates the solid angle of a detector pixel seen from a point,
// given the source-to-pixel vector in voxel units.
type SolidAngle struct {
	spacing Vector3 // volume spacing, mm
	// pixel area times detector orientation (du*dv*(u x v))
	orientationTimesArea Vector3
}

// NewSolidAngle precomputes the detector term from the pixel spacing and the
// two in-plane detector axes.
func NewSolidAngle(volumeSpacing Vector3, du, dv Real, u, v Vector3) (SolidAngle, error) {
	if !(volumeSpacing.X > 0 && volumeSpacing.Y > 0 && volumeSpacing.Z > 0) {
		return SolidAngle{}, fmt.Errorf("volume spacing must be > 0, got %+v", volumeSpacing)
	}
	n := u.Cross(v).Mul(du * dv)
	if !(n.Len() > 0) || !isFinite(n.Len()) {
		return SolidAngle{}, fmt.Errorf("degenerate detector: spacing %gx%g, u=%+v v=%+v", du, dv, u, v)
	}
	return SolidAngle{spacing: volumeSpacing, orientationTimesArea: n}, nil
}

// Of returns |p.n| / |p|^3 with p the source-to-pixel vector in mm.
func (s SolidAngle) Of(sourceToPixelInVox Vector3) Real {
	p := sourceToPixelInVox.MulElem(s.spacing)
	l := p.Len()
	return math.Abs(p.Dot(s.orientationTimesArea) / (l * l * l))
}
