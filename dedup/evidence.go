package dedup

import (
	"sort"

	"joreca_dedup/models"
)

// Summarize attaches the per-pair evidence to each cluster for downstream
// display. It reads clusters and scores without mutating either.
func Summarize(clusters []models.Cluster, scores []models.SimilarityScore) []models.EvidenceSummary {
	clusterOf := make(map[string]int, len(clusters))
	for i, c := range clusters {
		for _, id := range c.Members {
			clusterOf[id] = i
		}
	}

	pairsByCluster := make(map[int][]models.SimilarityScore)
	for _, s := range scores {
		ci, aok := clusterOf[s.Pair.A]
		cj, bok := clusterOf[s.Pair.B]
		if !aok || !bok || ci != cj {
			continue
		}
		pairsByCluster[ci] = append(pairsByCluster[ci], s)
	}

	summaries := make([]models.EvidenceSummary, 0, len(clusters))
	for i, c := range clusters {
		pairs := pairsByCluster[i]
		sort.Slice(pairs, func(x, y int) bool {
			if pairs[x].Pair.A != pairs[y].Pair.A {
				return pairs[x].Pair.A < pairs[y].Pair.A
			}
			return pairs[x].Pair.B < pairs[y].Pair.B
		})
		summaries = append(summaries, models.EvidenceSummary{
			Members:     c.Members,
			CanonicalID: c.CanonicalID,
			Confidence:  c.Confidence,
			Pairs:       pairs,
		})
	}
	return summaries
}
