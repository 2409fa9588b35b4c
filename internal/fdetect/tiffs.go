package fdetect

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"
)

// SaveTIFFSequence16 writes one deflate-compressed 16-bit gray TIFF per energy bin.
func SaveTIFFSequence16(d *DetectorImage, prefix string, gamma Real) error {
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return err
	}
	for b := 0; b < d.Bins; b++ {
		if Debug {
			fmt.Printf("[TIFF] bin %d/%d\n", b+1, d.Bins)
		}
		f, err := os.Create(binFileName(prefix, b, d.Bins, "tif"))
		if err != nil {
			return err
		}
		if err := tiff.Encode(f, toGray16(d, b, gamma), &tiff.Options{Compression: tiff.Deflate}); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
