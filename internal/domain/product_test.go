package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductFilter_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		in        ProductFilter
		wantLimit int
		wantPage  int
		wantSkip  int64
	}{
		{"defaults", ProductFilter{}, DefaultPageSize, 1, 0},
		{"limit capped", ProductFilter{Limit: 1000, Page: 2}, MaxPageSize, 2, MaxPageSize},
		{"negative page", ProductFilter{Limit: 10, Page: -3}, 10, 1, 0},
		{"huge page", ProductFilter{Limit: 100, Page: math.MaxInt}, 100, MaxPage, int64(MaxPage-1) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in.Normalize()
			assert.Equal(t, tt.wantLimit, f.Limit)
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantSkip, f.Skip())
			assert.GreaterOrEqual(t, f.Skip(), int64(0))
		})
	}
}

func TestProductFilter_NormalizeTrims(t *testing.T) {
	f := ProductFilter{Query: "  laptop ", Category: " Audio"}.Normalize()
	assert.Equal(t, "laptop", f.Query)
	assert.Equal(t, "Audio", f.Category)
}
