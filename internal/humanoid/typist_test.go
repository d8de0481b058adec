package humanoid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelaysOnePerRune(t *testing.T) {
	ty := NewTypist(1)
	delays := ty.Delays("hello world")
	require.Len(t, delays, 11)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
		assert.Less(t, d, 2*time.Second)
	}
}

func TestDelaysDeterministicPerSeed(t *testing.T) {
	a := NewTypist(42).Delays("search query")
	b := NewTypist(42).Delays("search query")
	assert.Equal(t, a, b)

	c := NewTypist(7).Delays("search query")
	assert.NotEqual(t, a, c)
}

func TestCommonDigraphsAreFaster(t *testing.T) {
	// Averaged over many samples the "th" roll must beat the "qz" reach.
	var fast, slow time.Duration
	tyFast := NewTypist(3)
	tySlow := NewTypist(3)
	for i := 0; i < 200; i++ {
		fast += tyFast.next('t', 'h')
		slow += tySlow.next('q', 'z')
	}
	assert.Less(t, fast, slow)
}

func TestDelaysNeverNegativeOnEmptyInput(t *testing.T) {
	assert.Empty(t, NewTypist(9).Delays(""))
}
