package audio

import "math"

// Tone returns n samples of a sine at freq Hz sampled at sampleRate.
func Tone(freq float64, sampleRate, n int, amplitude int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		phase := 2 * math.Pi * freq * float64(i) / float64(sampleRate)
		out[i] = int16(float64(amplitude) * math.Sin(phase))
	}
	return out
}
