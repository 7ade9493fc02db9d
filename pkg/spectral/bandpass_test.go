package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dtMs = 2.0 // Nyquist 250 Hz

// tones returns traces of n samples summing a sine per (Hz, amplitude) pair.
// With n=500 and dt=2ms every integer frequency falls on a bin.
func tones(traces, n int, parts ...[2]float64) [][]float32 {
	out := make([][]float32, traces)
	for i := range out {
		out[i] = make([]float32, n)
		for j := range out[i] {
			t := float64(j) * dtMs / 1000
			var v float64
			for _, p := range parts {
				v += p[1] * math.Sin(2*math.Pi*p[0]*t)
			}
			out[i][j] = float32(v)
		}
	}
	return out
}

func TestGain(t *testing.T) {
	b := Band{LowHz: 10, HighHz: 40, TaperHz: 10}

	assert.Equal(t, 0.0, b.Gain(0, 250))
	assert.InDelta(t, 0.5, b.Gain(5, 250), 1e-12)
	assert.Equal(t, 1.0, b.Gain(10, 250))
	assert.Equal(t, 1.0, b.Gain(40, 250))
	assert.InDelta(t, 0.5, b.Gain(45, 250), 1e-12)
	assert.Equal(t, 0.0, b.Gain(60, 250))

	lowCut := Band{LowHz: 8}
	assert.Equal(t, 0.0, lowCut.Gain(7.9, 250))
	assert.Equal(t, 1.0, lowCut.Gain(250, 250))
}

func TestBandpassRemovesOutOfBandTone(t *testing.T) {
	in := tones(3, 500, [2]float64{10, 1}, [2]float64{60, 0.5})
	want := tones(1, 500, [2]float64{10, 1})[0]

	out := Bandpass(in, dtMs, Band{HighHz: 30}, 2)
	require.Len(t, out, 3)
	for _, tr := range out {
		require.Len(t, tr, 500)
		for j := range tr {
			assert.InDelta(t, want[j], tr[j], 1e-3)
		}
	}
	// input untouched
	assert.NotEqual(t, want[5], in[0][5])
}

func TestBandpassCoresAgree(t *testing.T) {
	in := tones(7, 500, [2]float64{25, 1}, [2]float64{90, 0.3})
	b := Band{LowHz: 20, HighHz: 50, TaperHz: 5}
	assert.Equal(t, Bandpass(in, dtMs, b, 1), Bandpass(in, dtMs, b, 4))
}

func TestBandpassDisabled(t *testing.T) {
	in := tones(2, 16, [2]float64{10, 1})
	out := Bandpass(in, dtMs, Band{}, 2)
	assert.Same(t, &in[0][0], &out[0][0])
}

func TestDominantFrequency(t *testing.T) {
	in := tones(4, 500, [2]float64{10, 0.4}, [2]float64{60, 1})
	assert.InDelta(t, 60.0, DominantFrequency(in, dtMs), 1e-9)

	freqs, mags := Spectrum(in, dtMs)
	require.Len(t, freqs, 251)
	assert.InDelta(t, 250.0, freqs[250], 1e-9)
	assert.Greater(t, mags[10], mags[11])

	assert.Zero(t, DominantFrequency(nil, dtMs))
}
