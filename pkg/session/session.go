// Package session owns the state behind one visualization workspace: the
// loaded dataset and elevation grid, the transfer function and the registry of
// active descriptors. Every Host UI action goes through a Session method.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"geovis/internal/logx"
	"geovis/internal/models"
	"geovis/pkg/config"
	"geovis/pkg/dem"
	"geovis/pkg/gather"
	"geovis/pkg/mesh"
	"geovis/pkg/segy"
	"geovis/pkg/spectral"
	"geovis/pkg/transfer"
	"geovis/pkg/volume"
)

var (
	// ErrNoData matches any request made before the data it needs is loaded.
	ErrNoData = gather.ErrNoData

	// ErrSuperseded is returned by a build whose result was discarded because
	// a newer request for the same kind was issued while it ran.
	ErrSuperseded = errors.New("session: superseded by a newer request")

	// ErrUnknownKind is returned for a kind outside models.Kinds.
	ErrUnknownKind = errors.New("session: unknown visualization kind")
)

// Session is safe for concurrent use. State changes are serialized; builds run
// outside the lock on a snapshot of the inputs.
type Session struct {
	mu sync.Mutex

	cfg      *config.Config
	dataset  *models.SEGYDataset
	grid     *models.ElevationGrid
	tf       *transfer.Function
	editor   transfer.State
	presets  *transfer.Library
	preset   string
	registry *Registry

	// generations holds the latest ticket issued per kind
	generations map[models.Kind]uint64

	// afterBuild runs between a finished build and its publication
	afterBuild func(models.Kind)
}

// New creates a session drawing to surface. A nil cfg uses the defaults.
func New(cfg *config.Config, surface Surface) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	lib := transfer.DefaultLibrary()
	names := make([]string, 0, len(cfg.Transfer.CustomPresets))
	for name := range cfg.Transfer.CustomPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var pts []transfer.HexPoint
		for _, p := range cfg.Transfer.CustomPresets[name] {
			pts = append(pts, transfer.HexPoint{X: p.X, Color: p.Color, A: p.A})
		}
		p, err := transfer.NewPreset(name, pts)
		if err != nil {
			return nil, err
		}
		lib.Register(p)
	}

	start, err := lib.Get(cfg.Transfer.Preset)
	if err != nil {
		return nil, err
	}
	tf, err := transfer.New(start.Points)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:         cfg,
		tf:          tf,
		presets:     lib,
		preset:      start.Name,
		registry:    NewRegistry(surface),
		generations: make(map[models.Kind]uint64),
	}, nil
}

// DecoderOptions converts the decoder section of cfg.
func DecoderOptions(cfg *config.Config) segy.Options {
	opts := segy.DefaultOptions()
	opts.DefaultSampleInterval = cfg.Decoder.DefaultSampleInterval
	opts.DefaultSampleCount = cfg.Decoder.DefaultSampleCount
	opts.Strict = cfg.Decoder.StrictHeader
	if cfg.Decoder.TextEncoding != "" {
		opts.TextEncoding = segy.TextEncoding(cfg.Decoder.TextEncoding)
	}
	return opts
}

// DEMOptions converts the dem section of cfg.
func DEMOptions(cfg *config.Config) dem.Options {
	return dem.Options{
		ClipLowPercentile:  cfg.DEM.ClipLowPercentile,
		ClipHighPercentile: cfg.DEM.ClipHighPercentile,
		FillNoData:         cfg.DEM.FillNoData,
		NumCores:           cfg.Processing.NumCores,
	}
}

// LoadSEGY decodes buf and makes it the current dataset. On failure the
// previous dataset stays in place. Seismic displays of the old dataset are
// cleared and in-flight seismic builds are superseded.
func (s *Session) LoadSEGY(buf []byte) (segy.Info, error) {
	s.mu.Lock()
	opts := DecoderOptions(s.cfg)
	s.mu.Unlock()

	ds, err := segy.Decode(buf, opts)
	if err != nil {
		return segy.Info{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
	for _, k := range []models.Kind{models.KindDensity, models.KindWiggle, models.KindVolume} {
		s.generations[k]++
		if err := s.registry.Clear(k); err != nil {
			logx.Logger().Warn("session: dispose failed", "kind", k, "err", err)
		}
	}
	return segy.Summarize(ds), nil
}

// LoadDEM finalizes grid and makes it the current elevation grid.
func (s *Session) LoadDEM(grid *models.ElevationGrid) error {
	s.mu.Lock()
	opts := DEMOptions(s.cfg)
	s.mu.Unlock()

	if err := dem.Finalize(grid, opts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = grid
	s.generations[models.KindDEM]++
	if err := s.registry.Clear(models.KindDEM); err != nil {
		logx.Logger().Warn("session: dispose failed", "kind", models.KindDEM, "err", err)
	}
	return nil
}

// buildInput is everything a build reads, captured under the lock.
type buildInput struct {
	kind    models.Kind
	ticket  uint64
	dataset *models.SEGYDataset
	grid    *models.ElevationGrid
	cfg     config.Config
	start   int
	count   int
}

// RequestVisualization builds the descriptor for kind over the trace window
// [start, start+count) (ignored for DEM) and installs it on the surface.
//
// The request yields once before building. If another request for the same
// kind is issued before this one publishes, this one returns ErrSuperseded
// and its result is dropped.
func (s *Session) RequestVisualization(ctx context.Context, kind models.Kind, start, count int) (models.Descriptor, error) {
	in, err := s.begin(kind, start, count)
	if err != nil {
		return nil, err
	}

	runtime.Gosched()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := build(in)
	if err != nil {
		return nil, err
	}

	if s.afterBuild != nil {
		s.afterBuild(kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[kind] != in.ticket {
		logx.Logger().Debug("session: dropped stale result", "kind", kind, "ticket", in.ticket)
		return nil, ErrSuperseded
	}
	if err := s.registry.Set(kind, d, s.mappingFor(d)); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Session) begin(kind models.Kind, start, count int) (buildInput, error) {
	if kind < models.KindDEM || kind > models.KindVolume {
		return buildInput{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case kind == models.KindDEM && s.grid == nil:
		return buildInput{}, &gather.NoDataError{Op: kind.String()}
	case kind != models.KindDEM && s.dataset == nil:
		return buildInput{}, &gather.NoDataError{Op: kind.String()}
	}

	s.generations[kind]++
	return buildInput{
		kind:    kind,
		ticket:  s.generations[kind],
		dataset: s.dataset,
		grid:    s.grid,
		cfg:     *s.cfg,
		start:   start,
		count:   count,
	}, nil
}

func build(in buildInput) (models.Descriptor, error) {
	cfg := &in.cfg
	switch in.kind {
	case models.KindDEM:
		return mesh.BuildSurface(in.grid, mesh.SurfaceOptions{
			TargetResolution:     cfg.DEM.TargetResolution,
			VerticalExaggeration: cfg.DEM.VerticalExaggeration,
		})

	case models.KindDensity:
		w, err := gather.Extract(in.dataset, in.start, in.count)
		if err != nil {
			return nil, err
		}
		amps := condition(cfg, w.Amplitudes(1), in.dataset.DtMs())
		return mesh.BuildDensity(amps, mesh.DensityOptions{
			TargetResolution: cfg.Density.TargetResolution,
			ClipPercentile:   cfg.Density.ClipPercentile,
		})

	case models.KindWiggle:
		count := in.count
		if cfg.Wiggle.MaxTraces > 0 {
			count = min(count, cfg.Wiggle.MaxTraces)
		}
		w, err := gather.Extract(in.dataset, in.start, count)
		if err != nil {
			return nil, err
		}
		amps := condition(cfg, w.Amplitudes(1), in.dataset.DtMs())
		return mesh.BuildWiggle(amps, gather.MaxAbs(amps), mesh.WiggleOptions{
			Scale:      cfg.Wiggle.Scale,
			MaxPoints:  cfg.Wiggle.MaxPoints,
			Annotation: annotate(w.Start, w.Count, in.dataset.SampleCount, in.dataset.DtMs()),
		})

	case models.KindVolume:
		w, err := gather.Extract(in.dataset, in.start, in.count)
		if err != nil {
			return nil, err
		}
		decim := max(1, cfg.Volume.SampleDecim)
		slices, err := gather.Stack(in.dataset, w.Start, w.Count, cfg.Volume.Slices, cfg.Volume.Stride, decim)
		if err != nil {
			return nil, err
		}
		var ny int
		if len(slices) > 0 && len(slices[0]) > 0 {
			ny = len(slices[0][0])
		}
		dt := in.dataset.DtMs() * float64(decim)
		for z := range slices {
			slices[z] = condition(cfg, slices[z], dt)
		}
		return volume.Build(slices, volume.Options{
			ClipFactor:    cfg.Volume.ClipFactor,
			Spacing:       volume.Spacing(in.dataset.DtMs(), decim),
			NumCores:      cfg.Processing.NumCores,
			SliceUpsample: cfg.Volume.SliceUpsample,
			Annotation:    annotate(w.Start, w.Count, ny, dt),
		})
	}
	return nil, ErrUnknownKind
}

// condition applies the configured band-pass to a trace window.
func condition(cfg *config.Config, amps [][]float32, dtMs float64) [][]float32 {
	bp := cfg.Processing.Bandpass
	return spectral.Bandpass(amps, dtMs, spectral.Band{LowHz: bp.LowHz, HighHz: bp.HighHz, TaperHz: bp.TaperHz}, cfg.Processing.NumCores)
}

// DominantFrequency returns the strongest frequency, in Hz, of the raw
// traces in [start, start+count).
func (s *Session) DominantFrequency(start, count int) (float64, error) {
	s.mu.Lock()
	ds := s.dataset
	s.mu.Unlock()

	w, err := gather.Extract(ds, start, count)
	if err != nil {
		return 0, err
	}
	return spectral.DominantFrequency(w.Amplitudes(1), ds.DtMs()), nil
}

func annotate(start, count, samples int, dtMs float64) models.Annotation {
	return models.Annotation{
		StartTrace:  start,
		TraceCount:  count,
		SampleCount: samples,
		DtMs:        dtMs,
		MaxTimeMs:   int(math.Round(float64(samples) * dtMs)),
	}
}

// mappingFor remaps the current transfer function onto d's scalar range.
func (s *Session) mappingFor(d models.Descriptor) transfer.Mapping {
	lo, hi := ScalarRange(d)
	return s.tf.MapToScalarRange(lo, hi)
}

// ScalarRange returns the range a descriptor's scalars are colored over.
func ScalarRange(d models.Descriptor) (lo, hi float64) {
	switch v := d.(type) {
	case *models.MeshDescriptor:
		return float64(v.ScalarRange[0]), float64(v.ScalarRange[1])
	case *models.VolumeDescriptor:
		return float64(v.ValueRange[0]), float64(v.ValueRange[1])
	}
	return 0, 1
}

// Clear removes the active descriptor of kind and supersedes builds in flight.
func (s *Session) Clear(kind models.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[kind]++
	return s.registry.Clear(kind)
}

// ClearAll removes every active descriptor.
func (s *Session) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range models.Kinds {
		s.generations[k]++
	}
	return s.registry.ClearAll()
}

// Dataset returns the current dataset, or nil.
func (s *Session) Dataset() *models.SEGYDataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// Grid returns the current elevation grid, or nil.
func (s *Session) Grid() *models.ElevationGrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// Registry returns the descriptor registry.
func (s *Session) Registry() *Registry { return s.registry }

// Config returns the session configuration. Callers must not modify it.
func (s *Session) Config() *config.Config { return s.cfg }
