package dedup

import (
	"sort"

	"joreca_dedup/models"
)

// BuildClusters unions every scored pair at or above the threshold and turns
// the resulting components into clusters. Identifiers are remapped to dense
// indices in sorted order first, so the partition and every canonical choice
// are independent of input order.
//
// A singleton is a valid cluster: a listing nothing matched is vacuously
// unique and reported with confidence 1.0.
func BuildClusters(listings []models.NormalizedListing, scores []models.SimilarityScore, threshold float64) []models.Cluster {
	ids := make([]string, 0, len(listings))
	byID := make(map[string]*models.NormalizedListing, len(listings))
	for i := range listings {
		ids = append(ids, listings[i].ID)
		byID[listings[i].ID] = &listings[i]
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	uf := newUnionFind(len(ids))
	for _, s := range scores {
		if s.Score < threshold {
			continue
		}
		ai, aok := index[s.Pair.A]
		bi, bok := index[s.Pair.B]
		if !aok || !bok {
			continue
		}
		uf.union(ai, bi)
	}

	components := make(map[int][]string)
	for i, id := range ids {
		root := uf.find(i)
		components[root] = append(components[root], id)
	}

	// Aggregate confidence is the weakest scored link inside the cluster, so
	// one marginal pair is visible instead of averaged away. Every scored
	// pair counts, including those below the threshold.
	minScore := make(map[int]float64)
	for _, s := range scores {
		ai, aok := index[s.Pair.A]
		bi, bok := index[s.Pair.B]
		if !aok || !bok {
			continue
		}
		root := uf.find(ai)
		if root != uf.find(bi) {
			continue
		}
		if current, seen := minScore[root]; !seen || s.Score < current {
			minScore[root] = s.Score
		}
	}

	clusters := make([]models.Cluster, 0, len(components))
	for root, members := range components {
		sort.Strings(members)
		cluster := models.Cluster{
			Members:     members,
			CanonicalID: selectCanonical(members, byID),
			Confidence:  1.0,
		}
		if len(members) > 1 {
			if score, ok := minScore[root]; ok {
				cluster.Confidence = score
			}
		}
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	return clusters
}

// selectCanonical picks the display representative by a total order: most
// known fields, then earliest scrape, then smallest identifier. Members
// arrive sorted, so the fallback alone is already deterministic.
func selectCanonical(members []string, byID map[string]*models.NormalizedListing) string {
	best := members[0]
	for _, id := range members[1:] {
		if betterCanonical(byID[id], byID[best]) {
			best = id
		}
	}
	return best
}

func betterCanonical(candidate, current *models.NormalizedListing) bool {
	if candidate.KnownFields != current.KnownFields {
		return candidate.KnownFields > current.KnownFields
	}
	if !candidate.ScrapedAt.Equal(current.ScrapedAt) {
		return candidate.ScrapedAt.Before(current.ScrapedAt)
	}
	return candidate.ID < current.ID
}
