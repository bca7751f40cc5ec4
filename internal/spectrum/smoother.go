package spectrum

// BandValue is one display band: the live height and the held peak.
type BandValue struct {
	Index   int
	Current int
	Held    int
}

// BandSmoother keeps a peak-hold envelope per band. A rising band jumps
// straight up (clamped); a falling one loses one unit per Update, so decay
// speed follows the caller's tick rate.
type BandSmoother struct {
	held []int
}

// NewBandSmoother creates a smoother for numBands bands, all at zero.
func NewBandSmoother(numBands int) *BandSmoother {
	return &BandSmoother{held: make([]int, numBands)}
}

// Update advances the envelope by one tick. Bands missing from raw count
// as zero.
func (s *BandSmoother) Update(raw []int, clampMax int) []BandValue {
	out := make([]BandValue, len(s.held))
	for i := range s.held {
		v := 0
		if i < len(raw) {
			v = raw[i]
		}
		switch {
		case v > s.held[i]:
			s.held[i] = max(0, min(v, clampMax))
		case s.held[i] > 0:
			s.held[i]--
		}
		out[i] = BandValue{Index: i, Current: v, Held: s.held[i]}
	}
	return out
}

// Held returns a copy of the held heights.
func (s *BandSmoother) Held() []int {
	return append([]int(nil), s.held...)
}

// Reset drops every band back to zero.
func (s *BandSmoother) Reset() {
	clear(s.held)
}

// Len returns the number of bands.
func (s *BandSmoother) Len() int {
	return len(s.held)
}
