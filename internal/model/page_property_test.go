package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPaginateMatchesWindow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		list := rapid.SliceOfN(rapid.Int(), 0, 50).Draw(t, "list")
		size := rapid.IntRange(1, 20).Draw(t, "size")
		number := rapid.OneOf(
			rapid.IntRange(0, 10),
			rapid.IntRange(math.MaxInt/2, math.MaxInt),
		).Draw(t, "number")

		got := Paginate(list, Page{Number: number, Size: size})

		start := 0
		if number > 1 {
			start = len(list)
			if number-1 <= len(list)/size {
				start = min((number-1)*size, len(list))
			}
		}
		end := min(start+size, len(list))
		assert.Equal(t, append([]int{}, list[start:end]...), append([]int{}, got...))
	})
}

func TestPageOffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 0, Size: 10}.Offset())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
	assert.Equal(t, math.MaxInt, Page{Number: 1<<62 + 1, Size: 4}.Offset())
	assert.Equal(t, math.MaxInt, Page{Number: math.MaxInt, Size: 2}.Offset())
}
