package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []SearchField
		want   float64
	}{
		{
			name:   "empty query scores nothing",
			query:  "  ",
			fields: []SearchField{{Value: "tea", Weight: 10}},
			want:   0,
		},
		{
			// exact 15 + full-query token equal 5
			name:   "exact single word",
			query:  "Tea",
			fields: []SearchField{{Value: "tea", Weight: 10}},
			want:   20,
		},
		{
			// prefix 12 + token "green"=="green" 5
			name:   "prefix",
			query:  "green",
			fields: []SearchField{{Value: "Green Tea", Weight: 10}},
			want:   17,
		},
		{
			// contains 8 + "89" inside "8934" 2.4
			name:   "barcode substring",
			query:  "89",
			fields: []SearchField{{Value: "128934", Weight: 8}},
			want:   8 + 2.4,
		},
		{
			// name: contains 10 + "milk" equal 5; brand: exact 7.5 + "milk" equal 2.5
			name:  "several fields add up",
			query: "milk",
			fields: []SearchField{
				{Value: "Fresh milk", Weight: 10},
				{Value: "", Weight: 8},
				{Value: "Milk", Weight: 5},
			},
			want: 10 + 5 + 7.5 + 2.5,
		},
		{
			name:   "no match",
			query:  "coffee",
			fields: []SearchField{{Value: "tea", Weight: 10}},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightedScore(tt.query, tt.fields), 1e-9)
		})
	}
}

func TestTieredScore(t *testing.T) {
	fields := func(name, phone string) []TieredField {
		return []TieredField{
			{Value: name, Exact: 15, Prefix: 12, Substring: 10},
			flat(phone, 8),
		}
	}

	assert.Equal(t, 15.0, TieredScore("lan", fields("Lan", "")))
	assert.Equal(t, 12.0, TieredScore("lan", fields("Lan Anh", "")))
	assert.Equal(t, 10.0, TieredScore("anh", fields("Lan Anh", "")))
	assert.Equal(t, 20.0, TieredScore("09", fields("09 Store", "0901")))
	assert.Zero(t, TieredScore("x", fields("Lan", "0901")))
}

func TestRankByScore(t *testing.T) {
	type row struct {
		id    string
		name  string
		score float64
	}
	rows := []row{
		{"a", "beta", 1},
		{"b", "alpha", 3},
		{"c", "gamma", 0},
		{"a", "beta", 5},
		{"d", "alpha", 1},
	}

	got := rankByScore(rows,
		func(r row) string { return r.id },
		func(r row) float64 { return r.score },
		func(x, y row) bool { return x.name < y.name },
	)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.id
	}
	// zero dropped, first "a" wins the dedup, ties broken by name
	assert.Equal(t, []string{"b", "d", "a"}, ids)
}

func TestPageOf(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, pageOf(rows, 2, 2))
	assert.Equal(t, []int{5}, pageOf(rows, 4, 10))
	assert.Equal(t, []int{}, pageOf(rows, 10, 2))
	assert.Equal(t, rows, pageOf(rows, 0, 0))
}
