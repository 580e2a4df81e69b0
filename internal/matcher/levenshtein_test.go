package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"星巴克", "星巴克", 0},
		{"星巴克", "星巴客", 1},
		{"麦当劳", "肯德基", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestLevenshteinCountsRunes(t *testing.T) {
	// One CJK character differs; byte-wise this would be three edits.
	assert.Equal(t, 1, levenshtein("星巴克", "星巴買"))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, similarity("星巴克", "星巴克"), 1e-9)
	assert.InDelta(t, 2.0/3.0, similarity("星巴克", "星巴客"), 1e-9)
	assert.InDelta(t, 0.0, similarity("abc", "xyz"), 1e-9)
}
