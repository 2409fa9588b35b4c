package fdetect

import (
	"math"
	"testing"
)

func TestDetectorImageBins(t *testing.T) {
	d, err := NewEnergyResolvedImage(4, 3, 0.01, 0.1)
	if err != nil {
		t.Fatalf("NewEnergyResolvedImage: %v", err)
	}
	if d.Bins != 11 || len(d.Buf) != 4*3*11 || d.Stride() != 12 {
		t.Fatalf("bins %d, buf %d, stride %d", d.Bins, len(d.Buf), d.Stride())
	}
	for e, want := range map[Real]int{0: 0, 0.0049: 0, 0.0051: 1, 0.06: 6, 0.1: 10, 0.1049: 10, 0.106: -1, -0.01: -1} {
		if got := d.Bin(e); got != want {
			t.Fatalf("Bin(%v) = %d, want %d", e, got, want)
		}
	}
	if d.Add(d.PixelAt(1, 1), 0.5, 1) || d.Add(d.PixelAt(1, 1), -0.5, 1) {
		t.Fatalf("Add reported an out of range deposit")
	}
	if !d.Add(d.PixelAt(1, 1), 0.06, 0) {
		t.Fatalf("Add dropped an in-range deposit")
	}
	if d.Total() != 0 {
		t.Fatalf("out of range deposits were kept: %v", d.Total())
	}
	s, _ := NewDetectorImage(4, 3)
	if s.EnergyResolved() || s.Bin(123) != 0 {
		t.Fatalf("scalar image must use bin 0")
	}
}

func TestDetectorImageNoAliasing(t *testing.T) {
	d, err := NewEnergyResolvedImage(5, 2, 0.02, 0.1)
	if err != nil {
		t.Fatalf("NewEnergyResolvedImage: %v", err)
	}
	for b := 0; b < d.Bins; b++ {
		for j := 0; j < d.Ny; j++ {
			for i := 0; i < d.Nx; i++ {
				d.AddBin(d.PixelAt(i, j), b, Real(1000*b+10*j+i))
			}
		}
	}
	for b := 0; b < d.Bins; b++ {
		sl := d.Slice(b)
		for j := 0; j < d.Ny; j++ {
			for i := 0; i < d.Nx; i++ {
				want := Real(1000*b + 10*j + i)
				if got := d.At(d.PixelAt(i, j), b); got != want {
					t.Fatalf("(%d,%d) bin %d: got %v, want %v", i, j, b, got, want)
				}
				if sl[j*d.Nx+i] != want {
					t.Fatalf("slice %d disagrees at (%d,%d)", b, i, j)
				}
			}
		}
	}
	d.Reset()
	if d.Total() != 0 {
		t.Fatalf("Reset left %v", d.Total())
	}
}

func TestDetectorImageOutOfRangePanics(t *testing.T) {
	d, _ := NewDetectorImage(2, 2)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for pixel 4")
		}
	}()
	d.AddBin(Pixel(4), 0, 1)
}

func TestWeightArena(t *testing.T) {
	a, err := NewWeightArena(2, 3)
	if err != nil {
		t.Fatalf("NewWeightArena: %v", err)
	}
	a.Add(0, 0.5, 2, 1)
	a.Add(0, 1, 1, 1)
	a.Add(1, 3, 1, 0)
	if got := a.Slot(0)[1]; got != 2 {
		t.Fatalf("worker 0 material 1: %v", got)
	}
	a.Reset(0)
	if a.Slot(0)[1] != 0 || a.Slot(1)[0] != 3 {
		t.Fatalf("Reset touched the wrong slot: %v %v", a.Slot(0), a.Slot(1))
	}
	if _, err := NewWeightArena(0, 3); err == nil {
		t.Fatalf("expected an error for zero workers")
	}
	if _, err := NewWeightArena(1, 0); err == nil {
		t.Fatalf("expected an error for zero materials")
	}
}

func TestStatistics(t *testing.T) {
	s := NewStatistics(3)
	s.add(0, 1)
	s.add(1, 2)
	s.add(2, 3)
	if got := s.SquaredIntegralAndReset(); got != 14 {
		t.Fatalf("squared: %v", got)
	}
	if got := s.IntegralAndReset(); got != 6 {
		t.Fatalf("integral: %v", got)
	}
	if s.IntegralAndReset() != 0 || s.SquaredIntegralAndReset() != 0 {
		t.Fatalf("statistics not reset")
	}
}

func TestAttenuationInverse(t *testing.T) {
	for _, tau := range []Real{0, 0.1, 1, 7.5} {
		ref := 3.0
		if got := Attenuation(ref*math.Exp(-tau), ref); !almostEq(got, tau, 1e-12) {
			t.Fatalf("Attenuation(exp(-%v)) = %v", tau, got)
		}
	}
	img, _ := NewDetectorImage(2, 1)
	flat, _ := NewDetectorImage(2, 1)
	dst, _ := NewDetectorImage(2, 1)
	img.Buf[0], img.Buf[1] = math.Exp(-2), 0.5*math.Exp(-1)
	flat.Buf[0], flat.Buf[1] = 1, 0.5
	if err := AttenuationImage(dst, img, flat); err != nil {
		t.Fatalf("AttenuationImage: %v", err)
	}
	if !almostEq(dst.Buf[0], 2, 1e-12) || !almostEq(dst.Buf[1], 1, 1e-12) {
		t.Fatalf("attenuation image: %v", dst.Buf)
	}
	other, _ := NewDetectorImage(1, 2)
	if err := AttenuationImage(dst, img, other); err == nil {
		t.Fatalf("expected a shape mismatch error")
	}
}

func TestChetty(t *testing.T) {
	if _, err := NewChetty(1); err == nil {
		t.Fatalf("expected an error for N = 1")
	}
	c, err := NewChetty(4)
	if err != nil {
		t.Fatalf("NewChetty: %v", err)
	}
	if got := c.Estimate(4*2.5, 4*2.5*2.5); got != 0 {
		t.Fatalf("zero variance: got %v", got)
	}
	// samples 1, 2, 3, 4
	want := math.Sqrt((7.5-6.25)/3) / 2.5
	if got := c.Estimate(10, 30); !almostEq(got, want, 1e-12) {
		t.Fatalf("got %v, want %v", got, want)
	}
	sum, _ := NewDetectorImage(2, 1)
	sq, _ := NewDetectorImage(2, 1)
	dst, _ := NewDetectorImage(2, 1)
	sum.Buf[0], sq.Buf[0] = 10, 30
	if err := c.ChettyImage(dst, sum, sq); err != nil {
		t.Fatalf("ChettyImage: %v", err)
	}
	if !almostEq(dst.Buf[0], want, 1e-12) || dst.Buf[1] != 0 {
		t.Fatalf("chetty image: %v", dst.Buf)
	}
}
