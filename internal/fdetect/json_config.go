package fdetect

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
)

// CurveCfg is a tabulated curve, either inline or from a two-column file.
type CurveCfg struct {
	File   string    `json:"file,omitempty"`
	Points [][2]Real `json:"points,omitempty"`
}

// MaterialCfg lists, per electromagnetic process, the macroscopic cross
// section in mm^-1 as a function of energy in MeV.
type MaterialCfg struct {
	Name      string              `json:"name"`
	Processes map[string]CurveCfg `json:"processes"`
}

type BoxCfg struct {
	Min      Vector3 `json:"min"`
	Max      Vector3 `json:"max"`
	Material string  `json:"material"`
}

type SphereCfg struct {
	Center   Vector3 `json:"center"`
	Radius   Real    `json:"radius"`
	Material string  `json:"material"`
}

type VolumeCfg struct {
	Size    [3]int      `json:"size"`
	Spacing Vector3     `json:"spacing"`
	Origin  *Vector3    `json:"origin,omitempty"` // default: volume centred on the isocenter
	Labels  string      `json:"labels,omitempty"` // raw little-endian uint16 label file
	Boxes   []BoxCfg    `json:"boxes,omitempty"`
	Spheres []SphereCfg `json:"spheres,omitempty"`
}

type EnergyCfg struct {
	Spacing Real   `json:"spacing,omitempty"` // MeV, uniform axis
	Max     Real   `json:"max,omitempty"`     // MeV, defaults to the highest energy in use
	List    []Real `json:"list,omitempty"`    // explicit axis, overrides spacing
}

type SpectrumCfg struct {
	File      string         `json:"file,omitempty"`
	Lines     []SpectrumLine `json:"lines,omitempty"`
	Primaries int64          `json:"primaries,omitempty"` // 0: noiseless
	Seed      uint64         `json:"seed,omitempty"`
}

type DetectorCfg struct {
	Nu               int    `json:"nu"`
	Nv               int    `json:"nv"`
	Du               Real   `json:"du"`
	Dv               Real   `json:"dv"`
	SourceToIso      Real   `json:"sourceToIso"`
	SourceToDetector Real   `json:"sourceToDetector"`
	Projections      int    `json:"projections"`
	StartDeg         Real   `json:"startDeg"`
	ArcDeg           Real   `json:"arcDeg"`
	TiltDeg          Real   `json:"tiltDeg,omitempty"`
	EnergyResolved   bool   `json:"energyResolved,omitempty"`
	BinSize          Real   `json:"binSize,omitempty"` // MeV
	Response         string `json:"response,omitempty"`
	FlatField        bool   `json:"flatField,omitempty"` // primary: also write -ln(I/I0)
}

// EventCfg is one interaction feeding a scatter or fluorescence channel.
type EventCfg struct {
	Point     Vector3 `json:"point"`     // mm
	Direction Vector3 `json:"direction"` // incident photon direction
	Energy    Real    `json:"energy"`    // MeV
	Z         int     `json:"z"`
	Weight    Real    `json:"weight"`
}

type ScatterCfg struct {
	// DataDir holds Geant4-style per-element files <prefix><Z>.dat.
	DataDir            string     `json:"dataDir,omitempty"`
	FunctionPrefix     string     `json:"functionPrefix,omitempty"`
	CrossSectionPrefix string     `json:"crossSectionPrefix,omitempty"`
	Function           CurveCfg   `json:"function,omitempty"`     // inline S(x) or F(x), single element
	CrossSection       CurveCfg   `json:"crossSection,omitempty"` // inline sigma(E) in mm^2, single element
	Events             []EventCfg `json:"events"`
}

type Config struct {
	Workers   int           `json:"workers,omitempty"`
	Step      Real          `json:"step,omitempty"` // voxels
	Channel   string        `json:"channel"`        // primary, compton, rayleigh, fluorescence
	Volume    VolumeCfg     `json:"volume"`
	Materials []MaterialCfg `json:"materials"` // label order
	World     MaterialCfg   `json:"world"`
	Energy    EnergyCfg     `json:"energy"`
	Spectrum  SpectrumCfg   `json:"spectrum"`
	Detector  DetectorCfg   `json:"detector"`
	Scatter   ScatterCfg    `json:"scatter"`
	Output    string        `json:"output,omitempty"`
	Gamma     Real          `json:"gamma,omitempty"`

	dir string // config directory, relative paths resolve against it
}

const (
	ChannelPrimary      = "primary"
	ChannelCompton      = "compton"
	ChannelRayleigh     = "rayleigh"
	ChannelFluorescence = "fluorescence"
)

func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Build loads the curve; relative files resolve against base.
func (cc CurveCfg) Build(base string, mode Interpolation) (*Curve, error) {
	if cc.File != "" {
		p := cc.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		return LoadCurve(p, mode)
	}
	if len(cc.Points) == 0 {
		return nil, fmt.Errorf("%w: curve has neither file nor points", ErrMissingData)
	}
	x := make([]Real, len(cc.Points))
	y := make([]Real, len(cc.Points))
	for i, p := range cc.Points {
		x[i], y[i] = p[0], p[1]
	}
	return NewCurve(x, y, mode)
}

// buildCalculator registers every material, world last, and returns the ordered names.
func buildCalculator(cfg *Config) (*TabulatedCalculator, []string, error) {
	calc := NewTabulatedCalculator()
	all := append(append([]MaterialCfg(nil), cfg.Materials...), cfg.World)
	names := make([]string, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, m := range all {
		if m.Name == "" {
			return nil, nil, fmt.Errorf("material without a name")
		}
		if seen[m.Name] {
			return nil, nil, fmt.Errorf("material %q defined twice", m.Name)
		}
		seen[m.Name] = true
		if len(m.Processes) == 0 {
			return nil, nil, fmt.Errorf("%w: material %q has no process", ErrMissingData, m.Name)
		}
		for _, p := range slices.Sorted(maps.Keys(m.Processes)) {
			c, err := m.Processes[p].Build(cfg.dir, LogLog)
			if err != nil {
				return nil, nil, fmt.Errorf("material %q, process %q: %w", m.Name, p, err)
			}
			calc.Set(p, m.Name, c)
		}
		names = append(names, m.Name)
	}
	return calc, names, nil
}

// Build validates the energy axis configuration.
func (e EnergyCfg) Build(maxInUse Real) (EnergyAxis, error) {
	if len(e.List) > 0 {
		return ExplicitEnergyAxis(e.List)
	}
	m := e.Max
	if m <= 0 {
		m = maxInUse
	}
	return UniformEnergyAxis(e.Spacing, m)
}

// Build constructs the spectrum from the file or the inline lines.
func (s SpectrumCfg) Build(base string) (Spectrum, error) {
	if s.File != "" {
		p := s.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		return LoadSpectrum(p)
	}
	return NewSpectrum(s.Lines)
}

// Build turns the detector section into a gantry geometry.
func (d DetectorCfg) Build() (*Geometry, error) {
	g := &Geometry{
		SourceToIso:      d.SourceToIso,
		SourceToDetector: d.SourceToDetector,
		Nu:               d.Nu,
		Nv:               d.Nv,
		Du:               d.Du,
		Dv:               d.Dv,
		Angles:           EvenAngles(d.Projections, d.StartDeg, d.ArcDeg),
		Tilt:             d.TiltDeg * math.Pi / 180,
	}
	return g, g.Validate()
}

// Build allocates the volume and paints its labels.
func (v VolumeCfg) Build(cfg *Config, table *AttenuationTable) (*Volume, error) {
	origin := Vector3{
		-0.5 * Real(v.Size[0]-1) * v.Spacing.X,
		-0.5 * Real(v.Size[1]-1) * v.Spacing.Y,
		-0.5 * Real(v.Size[2]-1) * v.Spacing.Z,
	}
	if v.Origin != nil {
		origin = *v.Origin
	}
	vol, err := NewVolume(v.Size[0], v.Size[1], v.Size[2], v.Spacing, origin)
	if err != nil {
		return nil, err
	}
	if v.Labels != "" {
		if err := vol.LoadRawLabels(cfg.path(v.Labels)); err != nil {
			return nil, err
		}
	}
	label := func(name string) (uint16, error) {
		m, err := table.MaterialIndex(name)
		if err != nil {
			return 0, err
		}
		if m == table.World() {
			return 0, fmt.Errorf("the world material %q cannot be painted into the volume", name)
		}
		return uint16(m), nil
	}
	for _, b := range v.Boxes {
		l, err := label(b.Material)
		if err != nil {
			return nil, err
		}
		vol.FillBox(b.Min, b.Max, l)
	}
	for _, s := range v.Spheres {
		l, err := label(s.Material)
		if err != nil {
			return nil, err
		}
		vol.FillSphere(s.Center, s.Radius, l)
	}
	if err := vol.CheckLabels(table.NumMaterials()); err != nil {
		return nil, err
	}
	return vol, nil
}

// Build loads the element lookups of a scatter channel for every event element.
func (s ScatterCfg) Build(cfg *Config, defFunction, defCrossSection string) (fn, cs ElementLookup, err error) {
	zs := make([]int, 0, len(s.Events))
	seen := make(map[int]bool)
	for _, e := range s.Events {
		if !seen[e.Z] {
			seen[e.Z] = true
			zs = append(zs, e.Z)
		}
	}
	if s.DataDir != "" {
		fp, cp := s.FunctionPrefix, s.CrossSectionPrefix
		if fp == "" {
			fp = defFunction
		}
		if cp == "" {
			cp = defCrossSection
		}
		f, err := LoadElementData(cfg.path(s.DataDir), fp, zs)
		if err != nil {
			return nil, nil, err
		}
		c, err := LoadElementData(cfg.path(s.DataDir), cp, zs)
		if err != nil {
			return nil, nil, err
		}
		return f, c, nil
	}
	if len(zs) != 1 {
		return nil, nil, fmt.Errorf("inline scatter data covers a single element, events use %d", len(zs))
	}
	f, err := s.Function.Build(cfg.dir, LogLog)
	if err != nil {
		return nil, nil, fmt.Errorf("scatter function: %w", err)
	}
	c, err := s.CrossSection.Build(cfg.dir, LogLog)
	if err != nil {
		return nil, nil, fmt.Errorf("scatter cross section: %w", err)
	}
	return ElementData{zs[0]: f}, ElementData{zs[0]: c}, nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	// Defaults / validation
	if cfg.Channel == "" {
		cfg.Channel = ChannelPrimary
	}
	switch cfg.Channel {
	case ChannelPrimary, ChannelCompton, ChannelRayleigh, ChannelFluorescence:
	default:
		return nil, fmt.Errorf("unknown channel %q", cfg.Channel)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers()
	}
	if cfg.Step <= 0 {
		cfg.Step = StepVoxels
	}
	if cfg.Detector.Nu <= 0 {
		cfg.Detector.Nu = DetectorNu
	}
	if cfg.Detector.Nv <= 0 {
		cfg.Detector.Nv = DetectorNv
	}
	if cfg.Detector.Du <= 0 {
		cfg.Detector.Du = DetectorSpacing
	}
	if cfg.Detector.Dv <= 0 {
		cfg.Detector.Dv = DetectorSpacing
	}
	if cfg.Detector.SourceToIso <= 0 {
		cfg.Detector.SourceToIso = SourceToIso
	}
	if cfg.Detector.SourceToDetector <= 0 {
		cfg.Detector.SourceToDetector = SourceToDetector
	}
	if cfg.Detector.Projections <= 0 {
		cfg.Detector.Projections = 1
	}
	if cfg.Detector.ArcDeg == 0 {
		cfg.Detector.ArcDeg = 360
	}
	if len(cfg.Energy.List) == 0 && cfg.Energy.Spacing <= 0 {
		cfg.Energy.Spacing = EnergySpacing
	}
	if cfg.Detector.EnergyResolved && cfg.Detector.BinSize <= 0 {
		cfg.Detector.BinSize = cfg.Energy.Spacing
		if cfg.Detector.BinSize <= 0 {
			return nil, fmt.Errorf("energy-resolved detector needs a bin size")
		}
	}
	if cfg.Output == "" {
		cfg.Output = ImageOut
	}
	if cfg.Gamma <= 0 {
		cfg.Gamma = Gamma
	}
	if cfg.Volume.Spacing == (Vector3{}) {
		cfg.Volume.Spacing = Vector3{1, 1, 1}
	}
	if cfg.Channel != ChannelPrimary && len(cfg.Scatter.Events) == 0 {
		return nil, fmt.Errorf("channel %q needs at least one scatter event", cfg.Channel)
	}
	DebugLog("Loaded config from %s: channel=%s, volume=%v, detector=%dx%d, projections=%d, workers=%d", path, cfg.Channel, cfg.Volume.Size, cfg.Detector.Nu, cfg.Detector.Nv, cfg.Detector.Projections, cfg.Workers)
	return &cfg, nil
}
