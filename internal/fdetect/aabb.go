package fdetect

// segmentAABB clips the segment O + t*D, t in [0,1], against the box
// [minP, maxP]. It returns the entry and exit parameters.
func segmentAABB(O, D, minP, maxP Vector3) (bool, Real, Real) {
	tmin, tmax := 0.0, 1.0

	// X
	if D.X != 0 {
		inv := 1 / D.X
		t1 := (minP.X - O.X) * inv
		t2 := (maxP.X - O.X) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	} else if O.X < minP.X || O.X > maxP.X {
		return false, 0, 0
	}

	// Y
	if D.Y != 0 {
		inv := 1 / D.Y
		t1 := (minP.Y - O.Y) * inv
		t2 := (maxP.Y - O.Y) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	} else if O.Y < minP.Y || O.Y > maxP.Y {
		return false, 0, 0
	}

	// Z
	if D.Z != 0 {
		inv := 1 / D.Z
		t1 := (minP.Z - O.Z) * inv
		t2 := (maxP.Z - O.Z) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	} else if O.Z < minP.Z || O.Z > maxP.Z {
		return false, 0, 0
	}

	if tmin >= tmax {
		return false, 0, 0
	}
	return true, tmin, tmax
}
