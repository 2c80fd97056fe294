package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(slices.Collect(Bits(0)))
	assert.Equal([]int{0}, slices.Collect(Bits(0b0000_0001)))
	assert.Equal([]int{1, 3, 7}, slices.Collect(Bits(0b1000_1010)))
	assert.Equal([]int{0, 1, 2, 3, 4, 5, 6, 7}, slices.Collect(Bits(0xff)))

	// Early stop returns the lowest bit only.
	var first []int
	for n := range Bits(0b0110_0000) {
		first = append(first, n)
		break
	}
	assert.Equal([]int{5}, first)
}

func TestConcat2(t *testing.T) {
	assert := assert.New(t)

	a := map[string]int{"a": 1}
	b := map[string]int{"b": 2, "c": 3}

	all := maps.Collect(Concat2(maps.All(a), maps.All(b)))
	assert.Equal(map[string]int{"a": 1, "b": 2, "c": 3}, all)

	count := 0
	for range Concat2(maps.All(a), maps.All(b)) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}
