package models

// Trace is one sequence of amplitude samples at a single location.
// It is never mutated after decode.
type Trace []float32

// SEGYDataset holds a decoded SEGY file. It is immutable once created.
type SEGYDataset struct {
	// SampleIntervalMicroseconds is the time between samples
	SampleIntervalMicroseconds int

	// SampleCount is the number of samples in every trace
	SampleCount int

	// TraceCount is the number of complete traces in the file
	TraceCount int

	// FormatCode is the raw data sample format code from the binary header
	FormatCode int

	// TextHeader is the decoded 3200-byte textual header, one card per line
	TextHeader []string

	// Traces holds TraceCount traces of SampleCount samples each
	Traces []Trace
}

// DtMs returns the sample interval in milliseconds, or 1 when unknown.
func (d *SEGYDataset) DtMs() float64 {
	if d == nil || d.SampleIntervalMicroseconds <= 0 {
		return 1.0
	}
	return float64(d.SampleIntervalMicroseconds) / 1000.0
}

// Extent is the world-space footprint of a grid.
type Extent struct {
	MinX float64 `yaml:"minX"`
	MaxX float64 `yaml:"maxX"`
	MinY float64 `yaml:"minY"`
	MaxY float64 `yaml:"maxY"`
}

// ElevationGrid is a row-major digital elevation model.
type ElevationGrid struct {
	Width  int
	Height int

	// Data holds Width*Height elevations, row-major
	Data []float64

	// ZMin and ZMax bound Data
	ZMin, ZMax float64

	// World is the optional world-space footprint; nil means grid units
	World *Extent
}

// At returns the elevation at column x, row y.
func (g *ElevationGrid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}
