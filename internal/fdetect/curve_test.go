package fdetect

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCurveLogLog(t *testing.T) {
	c, err := NewCurve([]Real{1, 100}, []Real{1, 100}, LogLog)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	if got := c.Value(10); !almostEq(got, 10, 1e-12) {
		t.Fatalf("log-log midpoint: got %v", got)
	}
	if c.Value(0.5) != 1 || c.Value(1000) != 100 {
		t.Fatalf("curve not clamped: %v %v", c.Value(0.5), c.Value(1000))
	}
	// a zero bound falls back to linear
	z, _ := NewCurve([]Real{0, 2}, []Real{0, 4}, LogLog)
	if got := z.Value(1); !almostEq(got, 2, 1e-12) {
		t.Fatalf("fallback: got %v", got)
	}
}

func TestCurveLinear(t *testing.T) {
	c, err := NewCurve([]Real{1, 3, 5}, []Real{10, 20, 0}, Linear)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	for x, want := range map[Real]Real{2: 15, 3: 20, 4: 10, 0: 10, 6: 0} {
		if got := c.Value(x); !almostEq(got, want, 1e-12) {
			t.Fatalf("Value(%v) = %v, want %v", x, got, want)
		}
	}
	if _, err := NewCurve([]Real{2, 1}, []Real{1, 1}, Linear); err == nil {
		t.Fatalf("expected an error for unsorted x")
	}
	if _, err := NewCurve(nil, nil, Linear); err == nil {
		t.Fatalf("expected an error for an empty curve")
	}
}

func TestReadPairs(t *testing.T) {
	in := "# header\n1 2 # inline\n3\n4\n-1 -1\n5 6\n"
	x, y, err := readPairs(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readPairs: %v", err)
	}
	if len(x) != 2 || x[0] != 1 || y[0] != 2 || x[1] != 3 || y[1] != 4 {
		t.Fatalf("got x=%v y=%v", x, y)
	}
	if _, _, err := readPairs(strings.NewReader("1 2 3")); err == nil {
		t.Fatalf("expected an error for an odd count")
	}
	if _, _, err := readPairs(strings.NewReader("1 a")); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestLoadElementData(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ce-sf-8.dat"), []byte("0 0\n1 4\n10 8\n-1 -1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := LoadElementData(dir, "ce-sf-", []int{8})
	if err != nil {
		t.Fatalf("LoadElementData: %v", err)
	}
	if !d.HasElement(8) || d.HasElement(1) {
		t.Fatalf("HasElement wrong")
	}
	if got := d.Value(8, 0.5); !almostEq(got, 2, 1e-12) {
		t.Fatalf("Value(8, 0.5) = %v", got)
	}
	if _, err := LoadElementData(dir, "ce-sf-", []int{8, 6}); !errors.Is(err, ErrMissingData) {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := LoadElementData(dir, "ce-sf-", []int{0}); err == nil {
		t.Fatalf("expected an error for Z=0")
	}
}

func TestSpectrum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spectrum.dat")
	if err := os.WriteFile(path, []byte("0.04 0.25\n0.06 0.5\n0.08 0.25\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadSpectrum(path)
	if err != nil {
		t.Fatalf("LoadSpectrum: %v", err)
	}
	if s.Len() != 3 || s.MaxEnergy() != 0.08 || !almostEq(s.TotalWeight(), 1, 1e-15) {
		t.Fatalf("spectrum: len %d, max %v, total %v", s.Len(), s.MaxEnergy(), s.TotalWeight())
	}
	if _, err := NewSpectrum([]SpectrumLine{{Energy: 0, Weight: 1}}); err == nil {
		t.Fatalf("expected an error for a zero energy")
	}
	if _, err := NewSpectrum([]SpectrumLine{{Energy: 0.1, Weight: -1}}); err == nil {
		t.Fatalf("expected an error for a negative weight")
	}
}

func TestEnergyResponse(t *testing.T) {
	var none *EnergyResponse
	if none.At(0.05) != 1 {
		t.Fatalf("nil response must be 1")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "response.txt")
	if err := os.WriteFile(path, []byte("0.01 0.5\n0.1 1.4\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := LoadEnergyResponse(path)
	if err != nil {
		t.Fatalf("LoadEnergyResponse: %v", err)
	}
	if got := r.At(0.055); !almostEq(got, 0.95, 1e-12) {
		t.Fatalf("At(0.055) = %v", got)
	}
}
