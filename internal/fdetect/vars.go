package fdetect

type Real = float64

var (
	Debug = false // set to true for verbose debug output
	PNG   = false // set to true to save a 16-bit PNG per energy bin and projection
	TIFF  = false // set to true to save a 16-bit gray TIFF per energy bin and projection
	RAW   = false // set to true to save the raw float64 detector stack
	ZSTD  = false // set to true to zstd-compress the RAW output
	GIF   = false // set to true to save an animated GIF, one frame per projection
	// Compile time checks to ensure that every channel can be driven by Cast
	_ Channel = (*PrimaryChannel)(nil)
	_ Channel = (*ComptonChannel)(nil)
	_ Channel = (*RayleighChannel)(nil)
	_ Channel = (*FluorescenceChannel)(nil)
)
