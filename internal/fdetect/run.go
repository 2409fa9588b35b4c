package fdetect

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// session holds what every projection of a run shares.
type session struct {
	cfg      *Config
	table    *AttenuationTable
	vol      *Volume
	geom     *Geometry
	spectrum Spectrum
	response *EnergyResponse
	// element data of the compton or rayleigh channel
	function, crossSection ElementLookup
	frames                 []*DetectorImage // GIF frames, one per projection
}

func Run(cfgPath string) error {
	return RunContext(context.Background(), cfgPath)
}

// RunContext is Run with cancellation, checked between detector rows.
func RunContext(ctx context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	start := time.Now()
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	DebugLog("Setup done in %s", time.Since(start))

	integrals := make([]Real, 0, len(s.geom.Angles))
	for k := range s.geom.Angles {
		proj := s.geom.Projection(k)
		DebugLog("Projection #%d at %.2f deg, volume coverage %.4f", k, proj.Angle*180/math.Pi, estimateCoverage(proj, s.vol, cfg.Workers))
		var integral Real
		if cfg.Channel == ChannelPrimary {
			integral, err = s.primary(ctx, k)
		} else {
			integral, err = s.events(ctx, k)
		}
		if err != nil {
			return fmt.Errorf("projection %d: %w", k, err)
		}
		integrals = append(integrals, integral)
	}
	if GIF {
		path := cfg.Output + ".gif"
		if err := SaveAnimatedGIF(s.frames, path, GIFDelay, cfg.Gamma); err != nil {
			return err
		}
		DebugLog("Saved animated GIF: %s", path)
	}
	mean, std := stat.MeanStdDev(integrals, nil)
	DebugLog("Projections: %d, integral mean: %g, std: %g, time: %s", len(integrals), mean, std, time.Since(start))

	if Debug {
		raysStats()
	}
	return nil
}

func newSession(cfg *Config) (*session, error) {
	s := &session{cfg: cfg}
	var err error
	maxE := 0.0
	if cfg.Channel == ChannelPrimary {
		if s.spectrum, err = cfg.Spectrum.Build(cfg.dir); err != nil {
			return nil, err
		}
		maxE = s.spectrum.MaxEnergy()
	} else {
		for _, ev := range cfg.Scatter.Events {
			maxE = max(maxE, ev.Energy)
		}
	}
	switch cfg.Channel {
	case ChannelCompton:
		s.function, s.crossSection, err = cfg.Scatter.Build(cfg, "ce-sf-", "ce-cs-")
	case ChannelRayleigh:
		s.function, s.crossSection, err = cfg.Scatter.Build(cfg, "re-ff-", "re-cs-")
	}
	if err != nil {
		return nil, err
	}
	axis, err := cfg.Energy.Build(maxE)
	if err != nil {
		return nil, err
	}
	calc, names, err := buildCalculator(cfg)
	if err != nil {
		return nil, err
	}
	if s.table, err = NewAttenuationTable(calc, names, axis); err != nil {
		return nil, err
	}
	if s.vol, err = cfg.Volume.Build(cfg, s.table); err != nil {
		return nil, err
	}
	if s.geom, err = cfg.Detector.Build(); err != nil {
		return nil, err
	}
	if cfg.Detector.Response != "" {
		if s.response, err = LoadEnergyResponse(cfg.path(cfg.Detector.Response)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) newImage() (*DetectorImage, error) {
	d := s.cfg.Detector
	if d.EnergyResolved {
		e := s.table.Axis.Energies
		return NewEnergyResolvedImage(d.Nu, d.Nv, d.BinSize, e[len(e)-1])
	}
	return NewDetectorImage(d.Nu, d.Nv)
}

func (s *session) setup(img *DetectorImage, proj Projection) Setup {
	return Setup{
		Table:          s.table,
		Workers:        s.cfg.Workers,
		VolumeSpacing:  s.vol.Spacing,
		Image:          img,
		EnergyResolved: img.EnergyResolved(),
		Response:       s.response,
		PixelSpacingU:  proj.Du,
		PixelSpacingV:  proj.Dv,
		DetectorU:      proj.U,
		DetectorV:      proj.V,
	}
}

func (s *session) prefix(k int) string { return fmt.Sprintf("%s_%04d", s.cfg.Output, k) }

// cast runs one channel over projection proj and logs its statistics.
func (s *session) cast(ctx context.Context, proj Projection, vol *Volume, ch Channel) (Real, error) {
	start := time.Now()
	if err := Cast(ctx, proj, vol, ch, s.cfg.Step); err != nil {
		return 0, err
	}
	sum := ch.Statistics().IntegralAndReset()
	sq := ch.Statistics().SquaredIntegralAndReset()
	DebugLog("Rays: %d, integral: %g, squared: %g, time: %s", proj.Nu*proj.Nv, sum, sq, time.Since(start))
	return sum, nil
}

// primary writes the primary image of projection k and, when asked, its
// attenuation against an empty-volume flat field.
func (s *session) primary(ctx context.Context, k int) (Real, error) {
	proj := s.geom.Projection(k)
	img, err := s.newImage()
	if err != nil {
		return 0, err
	}
	ch, err := NewPrimaryChannel(s.setup(img, proj), s.spectrum)
	if err != nil {
		return 0, err
	}
	if n := s.cfg.Spectrum.Primaries; n > 0 {
		seed := s.cfg.Spectrum.Seed
		if seed != 0 {
			seed += uint64(k)
		}
		ch.SetNumberOfPrimaries(n, seed)
	}
	integral, err := s.cast(ctx, proj, s.vol, ch)
	if err != nil {
		return 0, err
	}
	if err := writeImage(img, s.prefix(k), s.cfg.Gamma); err != nil {
		return 0, err
	}
	s.keepFrame(img)
	if !s.cfg.Detector.FlatField {
		return integral, nil
	}

	flat, err := s.newImage()
	if err != nil {
		return 0, err
	}
	flatCh, err := NewPrimaryChannel(s.setup(flat, proj), s.spectrum)
	if err != nil {
		return 0, err
	}
	if _, err := s.cast(ctx, proj, s.vol.Empty(), flatCh); err != nil {
		return 0, err
	}
	att, err := s.newImage()
	if err != nil {
		return 0, err
	}
	if err := AttenuationImage(att, img, flat); err != nil {
		return 0, err
	}
	return integral, writeImage(att, s.prefix(k)+"_attenuation", s.cfg.Gamma)
}

// events accumulates every configured scatter or fluorescence event of
// projection k, and the Chetty uncertainty over events when there are several.
func (s *session) events(ctx context.Context, k int) (Real, error) {
	img, err := s.newImage()
	if err != nil {
		return 0, err
	}
	sum, err := s.newImage()
	if err != nil {
		return 0, err
	}
	sq, err := s.newImage()
	if err != nil {
		return 0, err
	}
	tmp := make([]Real, len(img.Buf))

	var integral, integralSq Real
	for n, ev := range s.cfg.Scatter.Events {
		g := *s.geom
		g.Emission = &ev.Point
		proj := g.Projection(k)
		ch, err := s.eventChannel(s.setup(img, proj), ev)
		if err != nil {
			return 0, fmt.Errorf("event %d: %w", n, err)
		}
		img.Reset()
		v, err := s.cast(ctx, proj, s.vol, ch)
		if err != nil {
			return 0, err
		}
		integral += v
		integralSq += v * v
		floats.Add(sum.Buf, img.Buf)
		floats.MulTo(tmp, img.Buf, img.Buf)
		floats.Add(sq.Buf, tmp)
	}
	if err := writeImage(sum, s.prefix(k), s.cfg.Gamma); err != nil {
		return 0, err
	}
	s.keepFrame(sum)
	if n := len(s.cfg.Scatter.Events); n > 1 {
		c, err := NewChetty(Real(n))
		if err != nil {
			return 0, err
		}
		unc, err := s.newImage()
		if err != nil {
			return 0, err
		}
		if err := c.ChettyImage(unc, sum, sq); err != nil {
			return 0, err
		}
		DebugLog("Projection #%d, events: %d, chetty over detector integral: %g", k, n, c.Estimate(integral, integralSq))
		if err := writeImage(unc, s.prefix(k)+"_chetty", s.cfg.Gamma); err != nil {
			return 0, err
		}
	}
	return integral, nil
}

func (s *session) keepFrame(img *DetectorImage) {
	if GIF {
		s.frames = append(s.frames, img)
	}
}

// eventChannel builds and configures the channel of one scatter or fluorescence event.
func (s *session) eventChannel(setup Setup, ev EventCfg) (Channel, error) {
	switch s.cfg.Channel {
	case ChannelCompton:
		ch, err := NewComptonChannel(setup, s.function, s.crossSection)
		if err != nil {
			return nil, err
		}
		if err := ch.SetDirection(ev.Direction); err != nil {
			return nil, err
		}
		return ch, ch.Configure(ev.Energy, ev.Z, ev.Weight)
	case ChannelRayleigh:
		ch, err := NewRayleighChannel(setup, s.function, s.crossSection)
		if err != nil {
			return nil, err
		}
		if err := ch.SetDirection(ev.Direction); err != nil {
			return nil, err
		}
		return ch, ch.Configure(ev.Energy, ev.Z, ev.Weight)
	case ChannelFluorescence:
		ch, err := NewFluorescenceChannel(setup)
		if err != nil {
			return nil, err
		}
		return ch, ch.Configure(ev.Energy, ev.Weight)
	}
	return nil, fmt.Errorf("unknown channel %q", s.cfg.Channel)
}

// writeImage saves img under prefix in every enabled format; RAW is the
// fallback when none is enabled.
func writeImage(img *DetectorImage, prefix string, gamma Real) error {
	if PNG {
		if err := SavePNGSequence16(img, prefix, gamma); err != nil {
			return err
		}
		DebugLog("Saved PNG sequence with prefix: %s", prefix)
	}
	if TIFF {
		if err := SaveTIFFSequence16(img, prefix, gamma); err != nil {
			return err
		}
		DebugLog("Saved TIFF sequence with prefix: %s", prefix)
	}
	if RAW || !(PNG || TIFF) {
		path := prefix + ".raw"
		if ZSTD {
			path += ".zst"
		}
		if err := img.SaveRaw64(path, ZSTD); err != nil {
			return err
		}
		DebugLog("Saved raw detector stack: %s", path)
	}
	return nil
}
