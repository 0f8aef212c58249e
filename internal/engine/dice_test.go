package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDieRollRange(t *testing.T) {
	d := NewDie(42)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := d.Roll()
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, DieFaces)
		seen[v] = true
	}
	assert.Len(t, seen, DieFaces, "every face should come up in 1000 rolls")
}

func TestDieDeterministicForSeed(t *testing.T) {
	a, b := NewDie(7), NewDie(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Roll(), b.Roll())
	}
}

func TestNewRandomDie(t *testing.T) {
	v := NewRandomDie().Roll()
	assert.True(t, v >= 1 && v <= DieFaces)
}

func TestFixedRollerCycles(t *testing.T) {
	r := NewFixedRoller(6, 4)
	assert.Equal(t, []int{6, 4, 6, 4}, []int{r.Roll(), r.Roll(), r.Roll(), r.Roll()})
	assert.Equal(t, 1, NewFixedRoller().Roll())
}
