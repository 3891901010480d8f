package businessflow

import (
	"sort"
	"strings"
)

// SearchField is one searchable attribute of a row
type SearchField struct {
	Value  string
	Weight float64
}

// TieredField scores fixed points for exact, prefix and substring matches
type TieredField struct {
	Value                    string
	Exact, Prefix, Substring float64
}

// WeightedScore scores a row against the query. Each field adds weight×1.5 on an
// exact match, ×1.2 on a prefix match or ×1.0 when it contains the query. Token
// matching then adds 0.5×weight for every equal token pair and 0.3×weight for
// every query token contained in a field token. The full query counts as a token.
func WeightedScore(query string, fields []SearchField) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	queryTokens := uniqueTokens(q)
	if _, ok := queryTokens[q]; !ok {
		queryTokens[q] = struct{}{}
	}

	score := 0.0
	for _, f := range fields {
		v := strings.ToLower(f.Value)
		if v == "" {
			continue
		}

		switch {
		case v == q:
			score += f.Weight * 1.5
		case strings.HasPrefix(v, q):
			score += f.Weight * 1.2
		case strings.Contains(v, q):
			score += f.Weight
		}

		for fieldToken := range uniqueTokens(v) {
			for token := range queryTokens {
				if token == fieldToken {
					score += f.Weight * 0.5
				} else if strings.Contains(fieldToken, token) {
					score += f.Weight * 0.3
				}
			}
		}
	}
	return score
}

func uniqueTokens(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TieredScore sums the tier points of every field that contains the query
func TieredScore(query string, fields []TieredField) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	score := 0.0
	for _, f := range fields {
		v := strings.ToLower(f.Value)
		if !strings.Contains(v, q) {
			continue
		}
		switch {
		case v == q:
			score += f.Exact
		case strings.HasPrefix(v, q):
			score += f.Prefix
		default:
			score += f.Substring
		}
	}
	return score
}

// flat builds a field that scores the same for every kind of match
func flat(value string, points float64) TieredField {
	return TieredField{Value: value, Exact: points, Prefix: points, Substring: points}
}

type scored[T any] struct {
	item  T
	score float64
}

// rankByScore scores every row, drops zero scores and duplicate ids and sorts
// by score descending. less breaks ties; nil keeps input order.
func rankByScore[T any](rows []T, id func(T) string, score func(T) float64, less func(a, b T) bool) []T {
	seen := make(map[string]struct{}, len(rows))
	ranked := make([]scored[T], 0, len(rows))
	for _, r := range rows {
		key := id(r)
		if _, dup := seen[key]; dup {
			continue
		}
		s := score(r)
		if s <= 0 {
			continue
		}
		seen[key] = struct{}{}
		ranked = append(ranked, scored[T]{item: r, score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if less != nil {
			return less(ranked[i].item, ranked[j].item)
		}
		return false
	})

	out := make([]T, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out
}

// pageOf slices a fully materialised result set
func pageOf[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
