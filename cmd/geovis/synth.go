package main

import (
	"math/rand"
	"os"

	"github.com/chewxy/math32"

	"geovis/internal/models"
	"geovis/pkg/segy"
)

const (
	synthTraces   = 240
	synthSamples  = 500
	synthDtMicros = 2000
	rickerFreqHz  = 25
)

// reflector is a planar interface at t0 ms on trace 0 dipping by dip ms per trace.
type reflector struct {
	t0, dip, amp float32
}

var synthReflectors = []reflector{
	{t0: 120, dip: 0.05, amp: 1},
	{t0: 300, dip: -0.3, amp: -0.7},
	{t0: 420, dip: 0.6, amp: 0.5},
	{t0: 700, dip: 0.15, amp: -0.9},
}

// writeSynthetic writes an IBM-float SEGY section of Ricker reflections with
// light noise to path.
func writeSynthetic(path string) error {
	rng := rand.New(rand.NewSource(1))
	dtMs := float32(synthDtMicros) / 1000

	ds := &models.SEGYDataset{
		SampleIntervalMicroseconds: synthDtMicros,
		SampleCount:                synthSamples,
		TraceCount:                 synthTraces,
		TextHeader:                 []string{"C 1 GEOVIS SYNTHETIC SECTION", "C 2 RICKER 25 HZ, 4 DIPPING REFLECTORS"},
	}
	for i := 0; i < synthTraces; i++ {
		tr := make(models.Trace, synthSamples)
		for j := range tr {
			t := float32(j) * dtMs
			var v float32
			for _, r := range synthReflectors {
				v += r.amp * ricker(t-(r.t0+r.dip*float32(i)))
			}
			tr[j] = v + 0.03*float32(rng.NormFloat64())
		}
		ds.Traces = append(ds.Traces, tr)
	}

	buf, err := segy.Encode(ds, segy.FormatIBMFloat)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// ricker is the Ricker wavelet at lag t milliseconds.
func ricker(t float32) float32 {
	a := math32.Pi * rickerFreqHz * t / 1000
	a *= a
	return (1 - 2*a) * math32.Exp(-a)
}
