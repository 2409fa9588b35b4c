package fdetect

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

type Interpolation uint8

const (
	LogLog Interpolation = iota // log-log between points, linear when a bound is not positive
	Linear
)

// Curve is a tabulated function y(x), clamped outside [X[0], X[n-1]].
type Curve struct {
	X, Y []Real
	Mode Interpolation
}

// NewCurve validates and copies the table.
func NewCurve(x, y []Real, mode Interpolation) (*Curve, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("curve needs matching non-empty x/y, got %d/%d", len(x), len(y))
	}
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return nil, fmt.Errorf("curve point #%d is not finite: (%g, %g)", i, x[i], y[i])
		}
		if i > 0 && x[i] < x[i-1] {
			return nil, fmt.Errorf("curve x not sorted at #%d: %g < %g", i, x[i], x[i-1])
		}
	}
	return &Curve{X: append([]Real(nil), x...), Y: append([]Real(nil), y...), Mode: mode}, nil
}

// Value interpolates the curve at x.
func (c *Curve) Value(x Real) Real {
	n := len(c.X)
	if x <= c.X[0] {
		return c.Y[0]
	}
	if x >= c.X[n-1] {
		return c.Y[n-1]
	}
	i := sort.SearchFloat64s(c.X, x) // c.X[i-1] < x <= c.X[i]
	x1, x2 := c.X[i-1], c.X[i]
	y1, y2 := c.Y[i-1], c.Y[i]
	if x2 == x1 {
		return y2
	}
	if c.Mode == LogLog && x1 > 0 && y1 > 0 && y2 > 0 {
		lx1, lx2 := math.Log10(x1), math.Log10(x2)
		ly1, ly2 := math.Log10(y1), math.Log10(y2)
		return math.Pow(10, ly1+(ly2-ly1)*(math.Log10(x)-lx1)/(lx2-lx1))
	}
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}

// readPairs parses whitespace separated "x y" pairs. A pair with a negative
// x ends the table (Geant4 data file convention); '#' starts a comment.
func readPairs(r io.Reader) (x, y []Real, err error) {
	sc := bufio.NewScanner(r)
	line := 0
	var pending []Real
	for sc.Scan() {
		line++
		text := sc.Text()
		if k := strings.IndexByte(text, '#'); k >= 0 {
			text = text[:k]
		}
		for _, f := range strings.Fields(text) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			pending = append(pending, v)
			if len(pending) < 2 {
				continue
			}
			if pending[0] < 0 {
				return x, y, nil
			}
			x = append(x, pending[0])
			y = append(y, pending[1])
			pending = pending[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if len(pending) != 0 {
		return nil, nil, fmt.Errorf("odd number of values, dangling %g", pending[0])
	}
	return x, y, nil
}

// LoadCurve reads a two-column table file.
func LoadCurve(path string, mode Interpolation) (*Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	x, y, err := readPairs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c, err := NewCurve(x, y, mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
