package fdetect

const (
	// Physical constants in Geant4 internal units (mm, MeV).
	ElectronMassC2        = 0.51099895000    // MeV
	ClassicElectronRadius = 2.8179403262e-12 // mm
	HPlanckC              = 1.23984198e-9    // MeV*mm
	CM                    = 10.0             // mm

	// Process name excluded from the attenuation table (multiple scattering).
	MultipleScattering = "msc"

	// Defaults used by loadConfig.
	DetectorNu       = 128
	DetectorNv       = 128
	DetectorSpacing  = 1.0   // mm
	SourceToIso      = 1000. // mm
	SourceToDetector = 1536. // mm
	EnergySpacing    = 0.001 // MeV
	StepVoxels       = 0.5   // marcher step along the ray, in voxels
	ImageOut         = "out/projection"
	Gamma            = 1.0
	GIFDelay         = 10 // 100ths of a second per projection
	SeedGolden       = 0x9e3779b97f4a7c15
)
