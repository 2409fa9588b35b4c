package fdetect

import (
	"fmt"
	"math"
)

// Attenuation converts an intensity to a line integral: -ln(a/ref).
// Both inputs must be strictly positive.
func Attenuation(a, ref Real) Real {
	return -math.Log(a / ref)
}

// AttenuationImage writes -ln(img/flat) into dst, pixel by pixel.
func AttenuationImage(dst, img, flat *DetectorImage) error {
	if err := sameShape(dst, img); err != nil {
		return err
	}
	if err := sameShape(img, flat); err != nil {
		return err
	}
	for i, v := range img.Buf {
		dst.Buf[i] = Attenuation(v, flat.Buf[i])
	}
	return nil
}

// Chetty estimates the relative statistical uncertainty of an additive
// accumulation over N histories (Chetty et al., IJROBP 2006, eq. 2).
type Chetty struct {
	invN   Real
	invNm1 Real
}

func NewChetty(n Real) (*Chetty, error) {
	if !(n > 1) || !isFinite(n) {
		return nil, fmt.Errorf("chetty estimator needs N > 1, got %g", n)
	}
	return &Chetty{invN: 1 / n, invNm1: 1 / (n - 1)}, nil
}

// Estimate returns sqrt((sq/N - (sum/N)^2) / (N-1)) / (sum/N); 0 when the
// variance estimate is not positive.
func (c *Chetty) Estimate(sum, squaredSum Real) Real {
	mean := sum * c.invN
	variance := squaredSum*c.invN - mean*mean
	if !(variance > 0) {
		return 0
	}
	return math.Sqrt(c.invNm1*variance) / mean
}

// ChettyImage applies Estimate to every pixel of the sum and squared-sum images.
func (c *Chetty) ChettyImage(dst, sum, squaredSum *DetectorImage) error {
	if err := sameShape(dst, sum); err != nil {
		return err
	}
	if err := sameShape(sum, squaredSum); err != nil {
		return err
	}
	for i, v := range sum.Buf {
		dst.Buf[i] = c.Estimate(v, squaredSum.Buf[i])
	}
	return nil
}

func sameShape(a, b *DetectorImage) error {
	if a.Nx != b.Nx || a.Ny != b.Ny || a.Bins != b.Bins {
		return fmt.Errorf("image shape mismatch: %dx%dx%d vs %dx%dx%d", a.Nx, a.Ny, a.Bins, b.Nx, b.Ny, b.Bins)
	}
	return nil
}
