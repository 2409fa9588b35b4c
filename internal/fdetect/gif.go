package fdetect

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"path/filepath"
)

// grayPalette maps index i to gray level i.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// SaveAnimatedGIF writes a GIF with one frame per projection, energy bins summed.
// delay is in 100ths of a second (e.g., 10 => 10 fps).
// per-frame normalization + optional gamma (e.g., 0.7 brightens).
func SaveAnimatedGIF(frames []*DetectorImage, path string, delay int, gamma Real) error {
	if len(frames) == 0 {
		return errors.New("animated GIF needs at least one frame")
	}
	nx, ny := frames[0].Nx, frames[0].Ny
	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
	}
	sum := make([]Real, nx*ny)
	for k, d := range frames {
		if d.Nx != nx || d.Ny != ny {
			return fmt.Errorf("frame %d is %dx%d, want %dx%d", k, d.Nx, d.Ny, nx, ny)
		}
		if Debug && k%max(1, len(frames)/100) == 0 {
			fmt.Printf("[GIF] %.2f%%\n", Real(k+1)*100/Real(len(frames)))
		}
		clear(sum)
		for b := 0; b < d.Bins; b++ {
			for i, v := range d.Slice(b) {
				sum[i] += v
			}
		}
		frameMax := 0.0
		for _, v := range sum {
			frameMax = max(frameMax, v)
		}
		if frameMax == 0 {
			frameMax = 1 // black frame
		}

		pimg := image.NewPaletted(image.Rect(0, 0, nx, ny), grayPalette)
		for j := 0; j < ny; j++ {
			rowOff := (ny - 1 - j) * pimg.Stride
			for i := 0; i < nx; i++ {
				pimg.Pix[rowOff+i] = toByte(sum[j*nx+i]/frameMax, gamma)
			}
		}
		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, delay)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// toByte maps n in 0..1 to 0..255 with gamma.
func toByte(n, gamma Real) uint8 {
	if !(n > 0) {
		return 0
	}
	if n > 1 {
		n = 1
	}
	if gamma != 1 {
		n = math.Pow(n, 1.0/gamma)
	}
	return uint8(math.Round(n * 255))
}
