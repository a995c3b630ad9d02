package bitset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushGrowsLength(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.Len())
	b.Push(false)
	assert.Equal(t, 1, b.Len())
	b.Push(true)
	b.Push(false)
	b.Push(true)
	assert.Equal(t, []int{1, 3}, b.Ones())
}

func TestRepeatMasksTrailingBits(t *testing.T) {
	b := Repeat(true, 131)
	require.Equal(t, 131, b.Len())
	assert.Equal(t, 131, b.CountOnes())

	want := make([]int, 131)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, b.Ones())
}

func TestRepeatFalse(t *testing.T) {
	b := Repeat(false, 70)
	assert.Equal(t, 0, b.CountOnes())
	assert.False(t, b.Any())
}

func TestAndShorterOperandZeroExtends(t *testing.T) {
	a := Repeat(true, 10)
	short := New()
	short.Push(true)
	short.Push(false)

	changed := a.And(&short)
	assert.True(t, changed)
	assert.Equal(t, []int{0}, a.Ones())
}

func TestOrShorterOperandZeroExtends(t *testing.T) {
	a := Repeat(false, 10)
	short := New()
	short.Push(true)

	changed := a.Or(&short)
	assert.True(t, changed)
	assert.Equal(t, []int{0}, a.Ones())
	assert.Equal(t, 10, a.Len())
}

func TestAndReportsNoChangeWhenStable(t *testing.T) {
	a := Repeat(false, 5)
	b := Repeat(false, 5)
	assert.False(t, a.And(&b))
}

func TestSetOutOfRangePanics(t *testing.T) {
	b := Repeat(false, 4)
	assert.Panics(t, func() {
		b.set(10, true)
	})
}

func TestIterOnesAcrossWordBoundary(t *testing.T) {
	// Build the scattered pattern via Push.
	b := New()
	for i := 0; i < 200; i++ {
		switch i {
		case 0, 63, 64, 65, 127, 128, 199:
			b.Push(true)
		default:
			b.Push(false)
		}
	}
	assert.Equal(t, []int{0, 63, 64, 65, 127, 128, 199}, b.Ones())
}

func TestCloneIsIndependent(t *testing.T) {
	a := Repeat(true, 10)
	c := a.Clone()
	a.And(&BitSet{})
	assert.Equal(t, 10, c.CountOnes())
	assert.Equal(t, 0, a.CountOnes())
}

func randomBitSet(t *testing.T, r *rand.Rand, n int) BitSet {
	t.Helper()
	b := New()
	for i := 0; i < n; i++ {
		b.Push(r.Intn(2) == 1)
	}
	return b
}

func TestBitsetLawsAgainstRandomInputs(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		n := r.Intn(300)
		a := randomBitSet(t, r, n)
		b := randomBitSet(t, r, n)

		and := a.Clone()
		and.And(&b)
		or := a.Clone()
		or.Or(&b)

		min := a.CountOnes()
		if b.CountOnes() < min {
			min = b.CountOnes()
		}
		max := a.CountOnes()
		if b.CountOnes() > max {
			max = b.CountOnes()
		}

		assert.LessOrEqual(t, and.CountOnes(), min)
		assert.GreaterOrEqual(t, or.CountOnes(), max)
	}
}

func TestIterOnesStopsEarly(t *testing.T) {
	b := Repeat(true, 10)
	var seen []int
	b.IterOnes(func(i int) bool {
		seen = append(seen, i)
		return i < 2
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}
