package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"101", 101},
		{"101a", 101.1},
		{"101b", 101.2},
		{"A-19", 19},
		{" 7A ", 7.1},
		{"12★", 12},
		{"3ab", 3},
		{"0001", 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SortKey(tt.in)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestSortKey_NoDigits(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "★"} {
		assert.Nil(t, SortKey(in), "input %q", in)
	}
}

func TestSortKey_Ordering(t *testing.T) {
	order := []string{"101", "101a", "101b", "102"}
	for i := 1; i < len(order); i++ {
		prev, next := SortKey(order[i-1]), SortKey(order[i])
		require.NotNil(t, prev)
		require.NotNil(t, next)
		assert.Less(t, *prev, *next, "%s should sort before %s", order[i-1], order[i])
	}
}
