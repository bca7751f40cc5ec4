package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandSmootherAttackAndDecay(t *testing.T) {
	s := NewBandSmoother(1)

	out := s.Update([]int{15}, 20)
	require.Len(t, out, 1)
	assert.Equal(t, BandValue{Index: 0, Current: 15, Held: 15}, out[0])

	out = s.Update([]int{0}, 20)
	assert.Equal(t, 14, out[0].Held)

	for i := 0; i < 14; i++ {
		s.Update([]int{0}, 20)
	}
	assert.Equal(t, []int{0}, s.Held())

	for i := 0; i < 5; i++ {
		s.Update([]int{0}, 20)
	}
	assert.Equal(t, []int{0}, s.Held(), "held never goes negative")
}

func TestBandSmootherClampsAttack(t *testing.T) {
	s := NewBandSmoother(2)

	s.Update([]int{35, 20}, 20)
	assert.Equal(t, []int{20, 20}, s.Held())

	// At the clamp a louder band neither rises nor decays.
	s.Update([]int{35, 5}, 20)
	assert.Equal(t, []int{20, 19}, s.Held())
}

func TestBandSmootherDecaysOneUnitPerTick(t *testing.T) {
	s := NewBandSmoother(1)
	s.Update([]int{10}, 20)

	s.Update([]int{3}, 20)
	assert.Equal(t, []int{9}, s.Held(), "a drop of 7 still only decays by 1")

	s.Update([]int{9}, 20)
	assert.Equal(t, []int{8}, s.Held(), "equal value is not an attack")

	s.Update([]int{12}, 20)
	assert.Equal(t, []int{12}, s.Held())
}

func TestBandSmootherShortInputDecays(t *testing.T) {
	s := NewBandSmoother(3)
	s.Update([]int{4, 4, 4}, 20)

	out := s.Update([]int{4}, 20)
	assert.Equal(t, []int{3, 3, 3}, s.Held())
	assert.Equal(t, 0, out[2].Current)
}

func TestBandSmootherReset(t *testing.T) {
	s := NewBandSmoother(2)
	s.Update([]int{5, 7}, 20)

	s.Reset()
	assert.Equal(t, []int{0, 0}, s.Held())
	assert.Equal(t, 2, s.Len())
}

func TestBandSmootherHeldIsCopy(t *testing.T) {
	s := NewBandSmoother(1)
	s.Update([]int{5}, 20)

	held := s.Held()
	held[0] = 100
	assert.Equal(t, []int{5}, s.Held())
}
