// Package spectrum turns captured sample blocks into magnitude spectra,
// dominant-frequency estimates and display bands.
package spectrum

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Spectrum is the normalized half-spectrum of one block. Magnitudes[k] is
// the bin at k*BinHz.
type Spectrum struct {
	Magnitudes []float64
	BinHz      float64
}

// Len returns the number of bins.
func (s Spectrum) Len() int {
	return len(s.Magnitudes)
}

// Frequency returns the center frequency of bin k in Hz.
func (s Spectrum) Frequency(k int) float64 {
	return float64(k) * s.BinHz
}

// Analyzer computes spectra for blocks captured at a fixed sample rate.
// It is not safe for concurrent use.
type Analyzer struct {
	sampleRate int
	input      []float64
}

// NewAnalyzer creates an analyzer for sampleRate.
func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{sampleRate: sampleRate}
}

// SampleRate returns the rate the analyzer assumes for its input.
func (a *Analyzer) SampleRate() int {
	return a.sampleRate
}

// Analyze transforms buf with a rectangular window and returns the first
// len(buf)/2 magnitudes scaled by 1/len(buf).
func (a *Analyzer) Analyze(buf []int16) Spectrum {
	n := len(buf)
	if n == 0 {
		return Spectrum{}
	}

	if cap(a.input) < n {
		a.input = make([]float64, n)
	}
	a.input = a.input[:n]
	for i, v := range buf {
		a.input[i] = float64(v)
	}

	coeffs := fft.FFTReal(a.input)

	mags := make([]float64, n/2)
	scale := 1 / float64(n)
	for k := range mags {
		mags[k] = cmplx.Abs(coeffs[k]) * scale
	}
	return Spectrum{
		Magnitudes: mags,
		BinHz:      float64(a.sampleRate) / float64(n),
	}
}

// DominantFrequency returns the frequency of the strongest bin. Ties go to
// the lowest bin, so silence reports 0 Hz.
func DominantFrequency(s Spectrum) float64 {
	if len(s.Magnitudes) == 0 {
		return 0
	}
	return s.Frequency(floats.MaxIdx(s.Magnitudes))
}

// AggregateBands splits the spectrum into numBands groups of
// len/numBands bins each and returns the truncated mean of every group.
// The trailing len%numBands bins belong to no band.
func AggregateBands(s Spectrum, numBands int) []int {
	if numBands <= 0 {
		return nil
	}
	bands := make([]int, numBands)
	group := len(s.Magnitudes) / numBands
	if group == 0 {
		return bands
	}
	for b := range bands {
		sum := floats.Sum(s.Magnitudes[b*group : (b+1)*group])
		bands[b] = int(sum / float64(group))
	}
	return bands
}
