// Package spectral band-limits seismic traces in the frequency domain and
// estimates their amplitude spectrum.
package spectral

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Band is a zero-phase band-pass with cosine tapers of TaperHz outside
// [LowHz, HighHz]. HighHz of 0 passes everything up to Nyquist.
type Band struct {
	LowHz   float64
	HighHz  float64
	TaperHz float64
}

// Enabled reports whether b filters anything.
func (b Band) Enabled() bool { return b.LowHz > 0 || b.HighHz > 0 }

// Gain returns the filter response at f Hz for a sampling with Nyquist nyq.
func (b Band) Gain(f, nyq float64) float64 {
	hi := b.HighHz
	if hi <= 0 || hi > nyq {
		hi = nyq
	}
	t := b.TaperHz
	switch {
	case f < b.LowHz-t, f > hi+t:
		return 0
	case f < b.LowHz:
		return cosRamp((f - (b.LowHz - t)) / t)
	case f > hi:
		return cosRamp((hi + t - f) / t)
	}
	return 1
}

func cosRamp(x float64) float64 {
	return 0.5 - 0.5*math.Cos(math.Pi*x)
}

// Bandpass filters every trace of amps, sampled every dtMs, through b and
// returns the filtered copy. Traces are spread over numCores workers. A
// disabled band returns amps itself.
func Bandpass(amps [][]float32, dtMs float64, b Band, numCores int) [][]float32 {
	if !b.Enabled() || len(amps) == 0 {
		return amps
	}
	dt := dtMs / 1000
	if dt <= 0 {
		dt = 0.001
	}
	nyq := 0.5 / dt

	out := make([][]float32, len(amps))
	numCores = max(1, min(numCores, len(amps)))
	perCore := (len(amps) + numCores - 1) / numCores

	var wg sync.WaitGroup
	for c := 0; c < numCores; c++ {
		lo := c * perCore
		hi := min(lo+perCore, len(amps))
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			// FFT plans are not safe for concurrent use
			var fft *fourier.FFT
			for i := lo; i < hi; i++ {
				out[i] = filterTrace(&fft, amps[i], dt, nyq, b)
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}

func filterTrace(plan **fourier.FFT, trace []float32, dt, nyq float64, b Band) []float32 {
	n := len(trace)
	out := make([]float32, n)
	if n < 2 {
		copy(out, trace)
		return out
	}
	if *plan == nil {
		*plan = fourier.NewFFT(n)
	} else if (*plan).Len() != n {
		(*plan).Reset(n)
	}
	fft := *plan

	seq := make([]float64, n)
	for i, v := range trace {
		seq[i] = float64(v)
	}
	coeff := fft.Coefficients(nil, seq)
	for k := range coeff {
		coeff[k] *= complex(b.Gain(fft.Freq(k)/dt, nyq), 0)
	}
	fft.Sequence(seq, coeff)

	// Sequence is unnormalized
	scale := 1 / float64(n)
	for i, v := range seq {
		out[i] = float32(v * scale)
	}
	return out
}

// Spectrum returns the mean amplitude spectrum of amps and the frequency in
// Hz of each bin, from 0 to Nyquist.
func Spectrum(amps [][]float32, dtMs float64) (freqs, mags []float64) {
	if len(amps) == 0 || len(amps[0]) < 2 {
		return nil, nil
	}
	dt := dtMs / 1000
	if dt <= 0 {
		dt = 0.001
	}
	n := len(amps[0])
	fft := fourier.NewFFT(n)
	seq := make([]float64, n)
	coeff := make([]complex128, n/2+1)

	mags = make([]float64, len(coeff))
	traces := 0
	for _, tr := range amps {
		if len(tr) != n {
			continue
		}
		for i, v := range tr {
			seq[i] = float64(v)
		}
		fft.Coefficients(coeff, seq)
		for k, c := range coeff {
			mags[k] += math.Hypot(real(c), imag(c))
		}
		traces++
	}

	freqs = make([]float64, len(coeff))
	for k := range coeff {
		freqs[k] = fft.Freq(k) / dt
		if traces > 0 {
			mags[k] /= float64(traces)
		}
	}
	return freqs, mags
}

// DominantFrequency returns the frequency of the strongest non-DC bin of
// the mean spectrum, or 0 when there is none.
func DominantFrequency(amps [][]float32, dtMs float64) float64 {
	freqs, mags := Spectrum(amps, dtMs)
	best, f := 0.0, 0.0
	for k := 1; k < len(mags); k++ {
		if mags[k] > best {
			best, f = mags[k], freqs[k]
		}
	}
	return f
}
