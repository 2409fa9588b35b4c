package fdetect

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Volume is a material-segmented voxel grid. Labels index the attenuation
// table materials and never the world (last) material.
type Volume struct {
	Nx, Ny, Nz int
	Spacing    Vector3  // mm
	Origin     Vector3  // world position of the centre of voxel (0,0,0), mm
	Labels     []uint16 // flat: (k*Ny + j)*Nx + i
}

// NewVolume allocates a volume filled with label 0.
func NewVolume(nx, ny, nz int, spacing, origin Vector3) (*Volume, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("voxel resolution must be positive, got %dx%dx%d", nx, ny, nz)
	}
	if !(spacing.X > 0 && spacing.Y > 0 && spacing.Z > 0) {
		return nil, fmt.Errorf("voxel spacing must be > 0, got %+v", spacing)
	}
	v := &Volume{
		Nx: nx, Ny: ny, Nz: nz,
		Spacing: spacing,
		Origin:  origin,
		Labels:  make([]uint16, nx*ny*nz),
	}
	DebugLog("Created volume %dx%dx%d, spacing=%+v, origin=%+v", nx, ny, nz, spacing, origin)
	return v, nil
}

// Empty returns the same grid without labels: every ray sees only the world.
func (v *Volume) Empty() *Volume {
	e := *v
	e.Labels = nil
	return &e
}

func (v *Volume) idx(i, j, k int) int { return (k*v.Ny+j)*v.Nx + i }

func (v *Volume) Label(i, j, k int) uint16 { return v.Labels[v.idx(i, j, k)] }

func (v *Volume) Set(i, j, k int, label uint16) { v.Labels[v.idx(i, j, k)] = label }

// ToVoxel maps a world point (mm) to continuous voxel coordinates.
func (v *Volume) ToVoxel(p Vector3) Vector3 { return p.Sub(v.Origin).DivElem(v.Spacing) }

// ToWorld is the inverse of ToVoxel.
func (v *Volume) ToWorld(p Vector3) Vector3 { return p.MulElem(v.Spacing).Add(v.Origin) }

// Bounds returns the voxel-space box covering every voxel.
func (v *Volume) Bounds() (minP, maxP Vector3) {
	return Vector3{-0.5, -0.5, -0.5}, Vector3{Real(v.Nx) - 0.5, Real(v.Ny) - 0.5, Real(v.Nz) - 0.5}
}

// nearest returns the label of the voxel containing p (voxel coordinates), clamped to the grid.
func (v *Volume) nearest(p Vector3) uint16 {
	i := clampIndex(p.X, v.Nx)
	j := clampIndex(p.Y, v.Ny)
	k := clampIndex(p.Z, v.Nz)
	return v.Labels[v.idx(i, j, k)]
}

func clampIndex(x Real, n int) int {
	i := int(math.Floor(x + 0.5))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// CheckLabels verifies every label addresses a non-world material.
func (v *Volume) CheckLabels(nMaterials int) error {
	for n, l := range v.Labels {
		if int(l) >= nMaterials-1 {
			return fmt.Errorf("%w: voxel %d has label %d, only %d volume materials", ErrUnknownMaterial, n, l, nMaterials-1)
		}
	}
	return nil
}

// FillBox labels every voxel whose centre lies in [minP, maxP] (mm).
func (v *Volume) FillBox(minP, maxP Vector3, label uint16) {
	v.fill(label, func(p Vector3) bool {
		return p.X >= minP.X && p.X <= maxP.X && p.Y >= minP.Y && p.Y <= maxP.Y && p.Z >= minP.Z && p.Z <= maxP.Z
	})
}

// FillSphere labels every voxel whose centre lies in the sphere (mm).
func (v *Volume) FillSphere(center Vector3, radius Real, label uint16) {
	r2 := radius * radius
	v.fill(label, func(p Vector3) bool {
		d := p.Sub(center)
		return d.Dot(d) <= r2
	})
}

func (v *Volume) fill(label uint16, inside func(Vector3) bool) {
	for k := 0; k < v.Nz; k++ {
		for j := 0; j < v.Ny; j++ {
			for i := 0; i < v.Nx; i++ {
				if inside(v.ToWorld(Vector3{Real(i), Real(j), Real(k)})) {
					v.Labels[v.idx(i, j, k)] = label
				}
			}
		}
	}
}

// LoadRawLabels reads Nx*Ny*Nz little-endian uint16 labels.
func (v *Volume) LoadRawLabels(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, v.Labels); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
