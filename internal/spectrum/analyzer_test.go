package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestAnalyzeLengthAndSign(t *testing.T) {
	a := NewAnalyzer(44100)
	for _, n := range []int{1, 2, 7, 100, 1024, 4100} {
		s := a.Analyze(sine(440, 44100, n, 12000))
		require.Equal(t, n/2, s.Len(), "frame count %d", n)
		assert.InDelta(t, 44100/float64(n), s.BinHz, 1e-9)
		for k, m := range s.Magnitudes {
			assert.GreaterOrEqual(t, m, 0.0, "bin %d of %d", k, n)
		}
	}
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	s := NewAnalyzer(44100).Analyze(nil)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0.0, DominantFrequency(s))
}

func TestDominantFrequencyPureSine(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		frames     int
		freq       float64
	}{
		{"default window", 44100, 44100, 1000},
		{"fast mode window", 44100, 4100, 1000},
		{"slow mode window", 44100, 41000, 2500},
		{"grid profile", 11025, 1024, 861.328125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.sampleRate)
			s := a.Analyze(sine(tt.freq, tt.sampleRate, tt.frames, 16000))
			binHz := float64(tt.sampleRate) / float64(tt.frames)
			assert.InDelta(t, tt.freq, DominantFrequency(s), binHz)
		})
	}
}

func TestAnalyzeSilence(t *testing.T) {
	a := NewAnalyzer(44100)
	for _, n := range []int{1024, 4100} {
		s := a.Analyze(make([]int16, n))
		assert.Equal(t, 0.0, DominantFrequency(s))
		for _, m := range s.Magnitudes {
			assert.Equal(t, 0.0, m)
		}
	}
}

func TestAnalyzeNormalizesByFrameCount(t *testing.T) {
	buf := make([]int16, 64)
	for i := range buf {
		buf[i] = 100
	}

	s := NewAnalyzer(8000).Analyze(buf)
	assert.InDelta(t, 100.0, s.Magnitudes[0], 1e-9)
	for k := 1; k < s.Len(); k++ {
		assert.InDelta(t, 0.0, s.Magnitudes[k], 1e-9)
	}
}

func TestAnalyzeReusesWorkspaceAcrossSizes(t *testing.T) {
	a := NewAnalyzer(8000)
	long := a.Analyze(sine(1000, 8000, 800, 8000))
	short := a.Analyze(sine(1000, 8000, 80, 8000))

	assert.Equal(t, 400, long.Len())
	assert.Equal(t, 40, short.Len())
	assert.InDelta(t, 1000, DominantFrequency(short), short.BinHz)
}

func TestDominantFrequencyTieTakesLowestBin(t *testing.T) {
	s := Spectrum{Magnitudes: []float64{1, 3, 2, 3}, BinHz: 10}
	assert.Equal(t, 10.0, DominantFrequency(s))
}

func referenceBands(mags []float64, numBands int) (count int, total int) {
	r := len(mags) / numBands
	for b := 0; b < numBands; b++ {
		m := 0.0
		for p := 0; p < r; p++ {
			m += mags[b*r+p]
		}
		total += int(m / float64(r))
		count++
	}
	return count, total
}

func ramp(n int) Spectrum {
	mags := make([]float64, n)
	for i := range mags {
		mags[i] = float64(i) * 1.5
	}
	return Spectrum{Magnitudes: mags, BinHz: 1}
}

func TestAggregateBandsExactGroups(t *testing.T) {
	s := ramp(100)
	bands := AggregateBands(s, 10)

	require.Len(t, bands, 10)
	// bins 0..9 average 6.75, bins 90..99 average 141.75
	assert.Equal(t, 6, bands[0])
	assert.Equal(t, 141, bands[9])

	count, total := referenceBands(s.Magnitudes, 10)
	sum := 0
	for _, b := range bands {
		sum += b
	}
	assert.Equal(t, count, len(bands))
	assert.Equal(t, total, sum)
}

func TestAggregateBandsDropsRemainder(t *testing.T) {
	s := ramp(105)
	s.Magnitudes[104] = 1e6 // would dominate the last band if it were counted

	bands := AggregateBands(s, 10)
	require.Len(t, bands, 10)
	assert.Equal(t, AggregateBands(ramp(100), 10), bands)

	count, total := referenceBands(s.Magnitudes, 10)
	sum := 0
	for _, b := range bands {
		sum += b
	}
	assert.Equal(t, count, len(bands))
	assert.Equal(t, total, sum)
}

func TestAggregateBandsFewerBinsThanBands(t *testing.T) {
	bands := AggregateBands(ramp(5), 40)
	assert.Equal(t, make([]int, 40), bands)
}

func TestAggregateBandsNoBands(t *testing.T) {
	assert.Nil(t, AggregateBands(ramp(10), 0))
}
