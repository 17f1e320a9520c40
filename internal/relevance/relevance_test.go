package relevance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pricegrid/gtin-price-compare/internal/relevance"
)

func TestFilter_IsRelevant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		offer      string
		reference  string
		minMatches int
		want       bool
	}{
		{
			name:       "same product with extra variant tokens",
			offer:      "Apple iPhone 13 128GB Blue",
			reference:  "Apple iPhone 13",
			minMatches: 2,
			want:       true,
		},
		{
			name:       "unrelated product",
			offer:      "Random Unrelated Gadget",
			reference:  "Apple iPhone 13",
			minMatches: 2,
			want:       false,
		},
		{
			name:       "empty reference bypasses the filter",
			offer:      "Anything at all",
			reference:  "",
			minMatches: 2,
			want:       true,
		},
		{
			name:       "exactly min matches accepts",
			offer:      "Sony WH-1000XM5 headphones",
			reference:  "Sony headphones case",
			minMatches: 2,
			want:       true,
		},
		{
			name:       "one below min matches rejects",
			offer:      "Sony WH-1000XM5 headphones",
			reference:  "Sony headphones case",
			minMatches: 3,
			want:       false,
		},
		{
			name:       "substring match covers plural forms",
			offer:      "Wireless Earbuds Bluetooth",
			reference:  "Wireless Earbud Charging",
			minMatches: 2,
			want:       true,
		},
		{
			name:       "marketing noise does not count as overlap",
			offer:      "NEW Best FREE Shipping Hot Sale Gadget",
			reference:  "Best New Free Sale Widget",
			minMatches: 2,
			want:       false,
		},
		{
			name:       "numeric tokens do not count as overlap",
			offer:      "Charger 2024 5000 Model X",
			reference:  "Cable 2024 5000 Type B",
			minMatches: 2,
			want:       false,
		},
		{
			name:       "offer title with only stop words rejects",
			offer:      "the best new sale",
			reference:  "Apple iPhone 13",
			minMatches: 2,
			want:       false,
		},
		{
			name:       "case and punctuation insensitive",
			offer:      "APPLE: iphone-13 (renewed)",
			reference:  "apple iphone 13",
			minMatches: 2,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := relevance.NewFilter(tt.minMatches)
			assert.Equal(t, tt.want, f.IsRelevant(tt.offer, tt.reference))
		})
	}
}

func TestNewFilter_InvalidThreshold(t *testing.T) {
	t.Parallel()

	f := relevance.NewFilter(0)
	assert.Equal(t, relevance.DefaultMinMatches, f.MinMatches())
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens := relevance.Tokenize("The NEW Apple iPhone-13, 128 GB (Blue) FREE shipping!!")

	assert.True(t, tokens["apple"])
	assert.True(t, tokens["iphone"])
	assert.True(t, tokens["blue"])

	// Stop words, short tokens, and pure numbers are dropped.
	assert.False(t, tokens["the"])
	assert.False(t, tokens["new"])
	assert.False(t, tokens["free"])
	assert.False(t, tokens["shipping"])
	assert.False(t, tokens["gb"])
	assert.False(t, tokens["128"])
	assert.False(t, tokens["13"])
}

func TestTokenize_Dedup(t *testing.T) {
	t.Parallel()

	tokens := relevance.Tokenize("widget widget widget")
	assert.Len(t, tokens, 1)
}
