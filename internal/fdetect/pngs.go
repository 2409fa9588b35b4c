package fdetect

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

// toGray16 maps bin b of the image to 16-bit gray with per-bin normalization
// and gamma (flip Y so up is up).
func toGray16(d *DetectorImage, bin int, gamma Real) *image.Gray16 {
	slice := d.Slice(bin)
	sliceMax := 0.0
	for _, v := range slice {
		if v > sliceMax {
			sliceMax = v
		}
	}
	if sliceMax == 0 {
		sliceMax = 1 // avoid div-by-zero; the bin will be black
	}
	scale := 1.0 / sliceMax

	toU16 := func(v Real) uint16 {
		if !(v > 0) {
			return 0
		}
		n := v * scale
		if n > 1 {
			n = 1
		}
		if gamma != 1 {
			n = math.Pow(n, 1.0/gamma)
		}
		return uint16(math.Round(n * 65535.0))
	}

	img := image.NewGray16(image.Rect(0, 0, d.Nx, d.Ny))
	for j := 0; j < d.Ny; j++ {
		y := d.Ny - 1 - j
		rowOff := y * img.Stride
		for i := 0; i < d.Nx; i++ {
			g := toU16(slice[j*d.Nx+i])
			p := rowOff + i*2
			// Gray16 stores big-endian uint16.
			img.Pix[p+0] = uint8(g >> 8)
			img.Pix[p+1] = uint8(g)
		}
	}
	return img
}

// binFileName is prefix_<bin>.<ext>, zero padded to the number of bins.
func binFileName(prefix string, bin, bins int, ext string) string {
	width := 1
	if bins > 1 {
		width = int(math.Log10(Real(bins-1))) + 1
	}
	return fmt.Sprintf("%s_%0*d.%s", prefix, width, bin, ext)
}

// SavePNGSequence16 writes one 16-bit gray PNG per energy bin.
func SavePNGSequence16(d *DetectorImage, prefix string, gamma Real) error {
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return err
	}
	step := 1
	if d.Bins >= 100 {
		step = d.Bins / 100
	}
	for b := 0; b < d.Bins; b++ {
		if Debug && b%step == 0 {
			fmt.Printf("[PNG]  %.2f%%\n", Real(b+1)*100/Real(d.Bins))
		}
		f, err := os.Create(binFileName(prefix, b, d.Bins, "png"))
		if err != nil {
			return err
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(f, toGray16(d, b, gamma)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
