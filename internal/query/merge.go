package query

import (
	"sort"
	"strings"

	"github.com/visitlog/visitlog/internal/model"
)

// Member is one (value, score) pair from a ranked-aggregate bucket.
type Member struct {
	Value string
	Score float64
}

// MergeRankedBuckets merges per-bucket ranked lists into a single
// descending ranking by summing scores per member across buckets.
//
// Member identity is case-insensitive so that "Italy" and "italy" never
// fragment a ranking; the displayed casing is the variant that carries
// the highest summed score. Members equal to the unknown sentinel and
// page paths under the administrative prefix are excluded. The result is
// capped to limit entries (no cap when limit <= 0).
func MergeRankedBuckets(buckets [][]Member, limit int) []Member {
	totals := make(map[string]float64)
	variants := make(map[string]map[string]float64)

	for _, bucket := range buckets {
		for _, m := range bucket {
			folded := strings.ToLower(m.Value)
			if folded == model.Unknown {
				continue
			}
			if strings.HasPrefix(m.Value, model.AdminPathPrefix) {
				continue
			}
			totals[folded] += m.Score
			if variants[folded] == nil {
				variants[folded] = make(map[string]float64)
			}
			variants[folded][m.Value] += m.Score
		}
	}

	merged := make([]Member, 0, len(totals))
	for folded, total := range totals {
		merged = append(merged, Member{
			Value: dominantVariant(variants[folded]),
			Score: total,
		})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Value < merged[j].Value
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// dominantVariant picks the casing with the highest accumulated score,
// breaking ties lexicographically for determinism.
func dominantVariant(scores map[string]float64) string {
	var best string
	var bestScore float64
	for variant, score := range scores {
		if best == "" || score > bestScore || (score == bestScore && variant < best) {
			best = variant
			bestScore = score
		}
	}
	return best
}
