package fdetect

// EnergyResponse weights a deposit by the detector response at its energy.
// A nil response is a perfect counting detector (response 1).
type EnergyResponse struct {
	curve *Curve
}

// LoadEnergyResponse reads a two-column (energy MeV, response) file,
// linearly interpolated.
func LoadEnergyResponse(path string) (*EnergyResponse, error) {
	c, err := LoadCurve(path, Linear)
	if err != nil {
		return nil, err
	}
	return &EnergyResponse{curve: c}, nil
}

// NewEnergyResponse wraps an existing curve.
func NewEnergyResponse(c *Curve) *EnergyResponse { return &EnergyResponse{curve: c} }

func (r *EnergyResponse) At(energy Real) Real {
	if r == nil || r.curve == nil {
		return 1
	}
	return r.curve.Value(energy)
}
