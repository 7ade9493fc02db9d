// Package segy decodes SEGY seismic files into trace datasets.
//
// Only the fields needed for display are read: the textual header, the
// sample interval, sample count and data format code from the binary header,
// and the trace samples. Trace headers are skipped.
package segy

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"geovis/internal/logx"
	"geovis/internal/models"
)

// Layout of a SEGY file. All binary fields are big-endian.
const (
	TextHeaderSize   = 3200
	BinaryHeaderSize = 400
	HeaderSize       = TextHeaderSize + BinaryHeaderSize
	TraceHeaderSize  = 240
	BytesPerSample   = 4

	offsetSampleInterval = 3216
	offsetSampleCount    = 3220
	offsetFormatCode     = 3224
)

// Data sample format codes.
const (
	FormatIBMFloat  = 1
	FormatIEEEFloat = 5
)

// FormatError reports a buffer that cannot be decoded as SEGY.
type FormatError struct {
	Reason string
	Size   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("segy: %s (buffer %d bytes)", e.Reason, e.Size)
}

// Options controls header fallbacks and text decoding.
type Options struct {
	// DefaultSampleInterval replaces a non-positive sample interval (microseconds)
	DefaultSampleInterval int

	// DefaultSampleCount replaces a non-positive sample count
	DefaultSampleCount int

	// Strict turns non-positive header fields into a FormatError
	Strict bool

	TextEncoding TextEncoding
}

// DefaultOptions returns the documented fallbacks: 1000µs and 128 samples.
func DefaultOptions() Options {
	return Options{
		DefaultSampleInterval: 1000,
		DefaultSampleCount:    128,
		TextEncoding:          TextAuto,
	}
}

// TraceSize returns the byte size of one trace with the given sample count.
func TraceSize(sampleCount int) int {
	return TraceHeaderSize + sampleCount*BytesPerSample
}

// Decode parses a complete SEGY buffer. It never returns a partial dataset:
// on error the result is nil.
func Decode(buf []byte, opts Options) (*models.SEGYDataset, error) {
	if len(buf) < HeaderSize {
		return nil, &FormatError{Reason: fmt.Sprintf("shorter than the %d-byte file header", HeaderSize), Size: len(buf)}
	}

	interval := int(int16(binary.BigEndian.Uint16(buf[offsetSampleInterval:])))
	sampleCount := int(int16(binary.BigEndian.Uint16(buf[offsetSampleCount:])))
	formatCode := int(int16(binary.BigEndian.Uint16(buf[offsetFormatCode:])))

	log := logx.Logger()
	if interval <= 0 {
		if opts.Strict {
			return nil, &FormatError{Reason: fmt.Sprintf("non-positive sample interval %d", interval), Size: len(buf)}
		}
		log.Warn("segy: substituting default sample interval", "header", interval, "default", opts.DefaultSampleInterval)
		interval = opts.DefaultSampleInterval
	}
	if sampleCount <= 0 {
		if opts.Strict {
			return nil, &FormatError{Reason: fmt.Sprintf("non-positive sample count %d", sampleCount), Size: len(buf)}
		}
		log.Warn("segy: substituting default sample count", "header", sampleCount, "default", opts.DefaultSampleCount)
		sampleCount = opts.DefaultSampleCount
	}
	if sampleCount <= 0 {
		return nil, &FormatError{Reason: "no usable sample count", Size: len(buf)}
	}

	traceSize := TraceSize(sampleCount)
	traceCount := (len(buf) - HeaderSize) / traceSize
	if traceCount <= 0 {
		return nil, &FormatError{Reason: fmt.Sprintf("no complete %d-byte trace after the file header", traceSize), Size: len(buf)}
	}

	decodeSample := ieeeSample
	if formatCode == FormatIBMFloat {
		decodeSample = IBMToIEEE
	}

	traces := make([]models.Trace, traceCount)
	for i := range traces {
		off := HeaderSize + i*traceSize + TraceHeaderSize
		samples := make(models.Trace, sampleCount)
		for j := range samples {
			samples[j] = decodeSample(binary.BigEndian.Uint32(buf[off+j*BytesPerSample:]))
		}
		traces[i] = samples
	}

	ds := &models.SEGYDataset{
		SampleIntervalMicroseconds: interval,
		SampleCount:                sampleCount,
		TraceCount:                 traceCount,
		FormatCode:                 formatCode,
		TextHeader:                 DecodeTextHeader(buf[:TextHeaderSize], opts.TextEncoding),
		Traces:                     traces,
	}

	log.Info("segy: decoded",
		"traces", traceCount, "samples", sampleCount,
		"intervalUs", interval, "format", formatCode,
		"trailingBytes", (len(buf)-HeaderSize)%traceSize)
	return ds, nil
}

// ReadFile reads and decodes a SEGY file from disk.
func ReadFile(path string, opts Options) (*models.SEGYDataset, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read segy file: %w", err)
	}
	return Decode(buf, opts)
}

func ieeeSample(word uint32) float32 {
	return math.Float32frombits(word)
}

// Info is a display summary of a decoded dataset.
type Info struct {
	TraceCount   int     `yaml:"traceCount"`
	SampleCount  int     `yaml:"sampleCount"`
	DtMicros     int     `yaml:"dtMicroseconds"`
	FormatCode   int     `yaml:"formatCode"`
	FormatName   string  `yaml:"formatName"`
	RecordLength float64 `yaml:"recordLengthMs"`
}

// Summarize reports the header-level facts of ds.
func Summarize(ds *models.SEGYDataset) Info {
	name := "IEEE float32"
	if ds.FormatCode == FormatIBMFloat {
		name = "IBM float32"
	}
	return Info{
		TraceCount:   ds.TraceCount,
		SampleCount:  ds.SampleCount,
		DtMicros:     ds.SampleIntervalMicroseconds,
		FormatCode:   ds.FormatCode,
		FormatName:   name,
		RecordLength: float64(ds.SampleCount) * ds.DtMs(),
	}
}
