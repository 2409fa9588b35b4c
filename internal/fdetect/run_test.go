package fdetect

import (
	"context"
	"errors"
	"image/gif"
	"math"
	"os"
	"testing"
)

func TestRunPrimary(t *testing.T) {
	path, out := writeConfig(t, primaryConfig)
	if err := Run(path); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, k := range []string{"_0000", "_0001"} {
		img, err := LoadRaw64(out + k + ".raw")
		if err != nil {
			t.Fatalf("projection %s: %v", k, err)
		}
		if img.Nx != 8 || img.Ny != 6 || img.Bins != 1 {
			t.Fatalf("shape %dx%dx%d", img.Nx, img.Ny, img.Bins)
		}
		att, err := LoadRaw64(out + k + "_attenuation.raw")
		if err != nil {
			t.Fatalf("attenuation %s: %v", k, err)
		}
		for i, v := range img.Buf {
			if !(v > 0 && v < 1) {
				t.Fatalf("pixel %d out of (0, 1): %v", i, v)
			}
			if att.Buf[i] < -1e-12 || math.IsNaN(att.Buf[i]) {
				t.Fatalf("attenuation %d: %v", i, att.Buf[i])
			}
		}
	}
}

const comptonConfig = `{
  "channel": "compton",
  "workers": 3,
  "volume": {"size": [4, 4, 4], "spacing": {"X": 5, "Y": 5, "Z": 5}},
  "materials": [{"name": "Water", "processes": {"compt": {"points": [[0.01, 0.02], [0.15, 0.015]]}}}],
  "world": {"name": "Air", "processes": {"compt": {"points": [[0.01, 0.00002], [0.15, 0.000015]]}}},
  "energy": {"spacing": 0.001, "max": 0.15},
  "detector": {"nu": 5, "nv": 4, "du": 4, "dv": 4, "energyResolved": true, "binSize": 0.01},
  "scatter": {
    "function": {"points": [[0.01, 0.5], [10, 8]]},
    "crossSection": {"points": [[0.01, 1e-22], [0.15, 5e-22]]},
    "events": [
      {"point": {"X": 0, "Y": 0, "Z": 0}, "direction": {"X": 0, "Y": 0, "Z": 1}, "energy": 0.06, "z": 8, "weight": 1},
      {"point": {"X": 3, "Y": 1, "Z": -2}, "direction": {"X": 0, "Y": 1, "Z": 1}, "energy": 0.08, "z": 8, "weight": 2}
    ]
  },
  "output": "OUT"
}`

func TestRunCompton(t *testing.T) {
	path, out := writeConfig(t, comptonConfig)
	if err := Run(path); err != nil {
		t.Fatalf("Run: %v", err)
	}
	img, err := LoadRaw64(out + "_0000.raw")
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if img.Bins != 16 || img.BinSize != 0.01 {
		t.Fatalf("bins %d, bin size %v", img.Bins, img.BinSize)
	}
	if !(img.Total() > 0) {
		t.Fatalf("no scatter deposited")
	}
	if _, err := os.Stat(out + "_0000_chetty.raw"); err != nil {
		t.Fatalf("chetty image: %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	path, _ := writeConfig(t, primaryConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunContext(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled run: %v", err)
	}
}

func TestRunAnimatedGIF(t *testing.T) {
	GIF = true
	t.Cleanup(func() { GIF = false })
	path, out := writeConfig(t, primaryConfig)
	if err := Run(path); err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, err := os.Open(out + ".gif")
	if err != nil {
		t.Fatalf("gif: %v", err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Image) != 2 {
		t.Fatalf("frames: got %d, want one per projection", len(g.Image))
	}
	if b := g.Image[0].Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("frame bounds %v", b)
	}
}
