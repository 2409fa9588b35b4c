package fdetect

import (
	"math"
	"testing"
)

func vecEq(a, b Vector3, eps Real) bool {
	return almostEq(a.X, b.X, eps) && almostEq(a.Y, b.Y, eps) && almostEq(a.Z, b.Z, eps)
}

func TestVectorOps(t *testing.T) {
	a, b := Vector3{1, 2, 3}, Vector3{4, 5, 6}
	if a.Add(b) != (Vector3{5, 7, 9}) || b.Sub(a) != (Vector3{3, 3, 3}) || a.Mul(2) != (Vector3{2, 4, 6}) {
		t.Fatalf("add/sub/mul")
	}
	if a.Dot(b) != 32 {
		t.Fatalf("dot: %v", a.Dot(b))
	}
	if got := (Vector3{1, 0, 0}).Cross(Vector3{0, 1, 0}); got != (Vector3{0, 0, 1}) {
		t.Fatalf("cross: %+v", got)
	}
	if got := a.MulElem(b).DivElem(b); got != a {
		t.Fatalf("MulElem/DivElem: %+v", got)
	}
	if !almostEq((Vector3{3, 4, 0}).Len(), 5, 1e-15) || !almostEq((Vector3{0, 0, 7}).Norm().Z, 1, 1e-15) {
		t.Fatalf("len/norm")
	}
	if (Vector3{}).Norm() != (Vector3{}) {
		t.Fatalf("zero vector norm")
	}
}

func TestGantryRotationOrthonormal(t *testing.T) {
	R := gantryRotation(0.7, 0.2)
	P := R.Mul(R.Transpose())
	I := I3()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if !almostEq(P.M[r][c], I.M[r][c], 1e-12) {
				t.Fatalf("R*R^T != I: %+v", P)
			}
		}
	}
	// a quarter turn brings the source from -Z to -X
	src := rotY(math.Pi / 2).MulVec(Vector3{0, 0, -1})
	if !vecEq(src, Vector3{-1, 0, 0}, 1e-12) {
		t.Fatalf("rotY(pi/2): %+v", src)
	}
	if got := rotX(math.Pi / 2).MulVec(Vector3{0, 1, 0}); !vecEq(got, Vector3{0, 0, 1}, 1e-12) {
		t.Fatalf("rotX(pi/2): %+v", got)
	}
}

func TestGeometryProjection(t *testing.T) {
	g := &Geometry{
		SourceToIso:      1000,
		SourceToDetector: 1500,
		Nu:               4,
		Nv:               2,
		Du:               1,
		Dv:               2,
		Angles:           EvenAngles(4, 0, 360),
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !almostEq(g.Angles[1], math.Pi/2, 1e-15) {
		t.Fatalf("angles: %v", g.Angles)
	}
	p := g.Projection(0)
	if !vecEq(p.Source, Vector3{0, 0, -1000}, 1e-12) || !vecEq(p.DetectorCenter, Vector3{0, 0, 500}, 1e-12) {
		t.Fatalf("projection 0: %+v", p)
	}
	if got := p.PixelPosition(0, 0); !vecEq(got, Vector3{-1.5, -1, 500}, 1e-12) {
		t.Fatalf("pixel (0,0): %+v", got)
	}
	p = g.Projection(2)
	if !vecEq(p.Source, Vector3{0, 0, 1000}, 1e-9) || !vecEq(p.U, Vector3{-1, 0, 0}, 1e-12) {
		t.Fatalf("projection 2: %+v", p)
	}
	e := Vector3{5, 6, 7}
	g.Emission = &e
	if g.Projection(1).Source != e {
		t.Fatalf("emission point ignored")
	}

	bad := *g
	bad.SourceToDetector = 900
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected an error for a detector inside the source circle")
	}
	bad = *g
	bad.Angles = nil
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected an error without angles")
	}
}

func TestSegmentAABB(t *testing.T) {
	minP, maxP := Vector3{-0.5, -0.5, -0.5}, Vector3{3.5, 3.5, 3.5}
	ok, t0, t1 := segmentAABB(Vector3{1, 1, -10}, Vector3{0, 0, 20}, minP, maxP)
	if !ok || !almostEq(t0, 9.5/20, 1e-15) || !almostEq(t1, 13.5/20, 1e-15) {
		t.Fatalf("through: %v %v %v", ok, t0, t1)
	}
	if ok, _, _ := segmentAABB(Vector3{1, 1, -10}, Vector3{0, 0, 5}, minP, maxP); ok {
		t.Fatalf("segment stopping before the box must miss")
	}
	if ok, _, _ := segmentAABB(Vector3{10, 1, -10}, Vector3{0, 0, 20}, minP, maxP); ok {
		t.Fatalf("parallel ray outside the slab must miss")
	}
	ok, t0, t1 = segmentAABB(Vector3{1, 1, 1}, Vector3{0, 0, 20}, minP, maxP)
	if !ok || t0 != 0 || !almostEq(t1, 2.5/20, 1e-15) {
		t.Fatalf("starting inside: %v %v %v", ok, t0, t1)
	}
}

func TestVolume(t *testing.T) {
	v, err := NewVolume(4, 4, 4, Vector3{2, 2, 2}, Vector3{-3, -3, -3})
	if err != nil {
		t.Fatalf("NewVolume: %v", err)
	}
	if got := v.ToWorld(v.ToVoxel(Vector3{1, 2, 3})); !vecEq(got, Vector3{1, 2, 3}, 1e-12) {
		t.Fatalf("ToWorld(ToVoxel): %+v", got)
	}
	v.FillSphere(Vector3{}, 1.8, 1)
	n := 0
	for _, l := range v.Labels {
		if l == 1 {
			n++
		}
	}
	// centres at +-1 on every axis: the 8 central voxels are at distance sqrt(3)
	if n != 8 {
		t.Fatalf("sphere labelled %d voxels", n)
	}
	if v.nearest(Vector3{1.4, 1.6, -7}) != v.Label(1, 2, 0) {
		t.Fatalf("nearest does not clamp")
	}
	if err := v.CheckLabels(3); err != nil {
		t.Fatalf("CheckLabels: %v", err)
	}
	if err := v.CheckLabels(2); err == nil {
		t.Fatalf("label 1 is the world of a two-material table")
	}
	v.FillBox(Vector3{-10, -10, -10}, Vector3{10, 10, 10}, 0)
	if v.Label(1, 1, 1) != 0 {
		t.Fatalf("box fill failed")
	}
	if _, err := NewVolume(0, 1, 1, Vector3{1, 1, 1}, Vector3{}); err == nil {
		t.Fatalf("expected an error for an empty grid")
	}
	if e := v.Empty(); e.Labels != nil || v.Labels == nil || e.Nx != 4 {
		t.Fatalf("Empty must keep the grid and drop only the labels")
	}
}

func TestRayLogCache(t *testing.T) {
	cache = &RayLogCache{rays: make(map[string][]RayLog), count: make(map[string]int)}
	logRay("foo", Traversed, 0, 1, 2)
	logRay("foo", MissVolume, 1, 0, 3)
	logRay("bar", Degenerate, 2, 0, 0)
	if len(cache.rays["foo"]) != 2 || len(cache.rays["bar"]) != 1 {
		t.Fatalf("unexpected cache sizes: %+v", cache.rays)
	}
	for i := 0; i < maxLogsPerName+10; i++ {
		logRay("many", Traversed, 0, 0, 0)
	}
	if len(cache.rays["many"]) != maxLogsPerName || cache.count["many"] != maxLogsPerName+10 {
		t.Fatalf("cap not applied: %d logged, %d counted", len(cache.rays["many"]), cache.count["many"])
	}
	raysStats()
}
