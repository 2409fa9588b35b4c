package fdetect

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// SaveRaw64 writes the detector stack: Nx, Ny, Bins as int32, BinSize as
// float64, then Buf as float64, all little-endian. With compress the whole
// stream is zstd framed.
func (d *DetectorImage) SaveRaw64(path string, compress bool) error {
	exp := int64(d.Nx) * int64(d.Ny) * int64(d.Bins)
	if int64(len(d.Buf)) != exp {
		return fmt.Errorf("Buf length mismatch: got %d, expected %d (Nx*Ny*Bins)", len(d.Buf), exp)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var enc *zstd.Encoder
	if compress {
		if enc, err = zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedBetterCompression)); err != nil {
			return err
		}
		w = enc
	}

	for _, v := range []int32{int32(d.Nx), int32(d.Ny), int32(d.Bins)} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, d.BinSize); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, d.Buf); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// LoadRaw64 reads a file written by SaveRaw64, compressed or not.
func LoadRaw64(path string) (*DetectorImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	var hdr [3]int32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%s: header: %w", path, err)
	}
	if hdr[0] <= 0 || hdr[1] <= 0 || hdr[2] <= 0 {
		return nil, fmt.Errorf("%s: invalid dimensions %v", path, hdr)
	}
	d := &DetectorImage{Nx: int(hdr[0]), Ny: int(hdr[1]), Bins: int(hdr[2])}
	if err := binary.Read(r, binary.LittleEndian, &d.BinSize); err != nil {
		return nil, fmt.Errorf("%s: header: %w", path, err)
	}
	d.Buf = make([]Real, d.Nx*d.Ny*d.Bins)
	if err := binary.Read(r, binary.LittleEndian, d.Buf); err != nil {
		return nil, fmt.Errorf("%s: body: %w", path, err)
	}
	return d, nil
}
