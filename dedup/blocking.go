package dedup

import (
	"fmt"
	"math"
	"sort"

	"joreca_dedup/models"
)

// GenerateCandidates buckets listings by coarse attributes and emits every
// unordered pair that shares a bucket. Listings with a known price join a
// city+price-band block, listings with a known surface join a
// city+surface-band block. A listing with neither is paired against every
// listing in its city, trading comparison cost for not losing the rare
// fully-sparse record.
//
// The result is a set: a pair produced by several blocks appears once, and no
// listing is paired with itself. Blocks beyond cfg.MaxBlockSize are still
// fully paired; the returned warnings only tell the caller that comparison
// cost was high there.
func GenerateCandidates(listings []models.NormalizedListing, cfg Config) ([]models.CandidatePair, []models.BlockWarning) {
	blocks := make(map[string][]string)
	byCity := make(map[string][]string)
	sparse := make(map[string][]string)

	for i := range listings {
		l := &listings[i]
		byCity[l.City] = append(byCity[l.City], l.ID)
		blocked := false
		if l.Price != nil {
			band := *l.Price / cfg.PriceBucketSize
			key := fmt.Sprintf("price|%s|%d", l.City, band)
			blocks[key] = append(blocks[key], l.ID)
			blocked = true
		}
		if l.Surface != nil {
			band := int(math.Floor(*l.Surface / cfg.SurfaceBucketSize))
			key := fmt.Sprintf("surface|%s|%d", l.City, band)
			blocks[key] = append(blocks[key], l.ID)
			blocked = true
		}
		if !blocked {
			sparse[l.City] = append(sparse[l.City], l.ID)
		}
	}

	pairSet := make(map[models.CandidatePair]struct{})
	var warnings []models.BlockWarning

	keys := make([]string, 0, len(blocks))
	for key := range blocks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		members := blocks[key]
		if len(members) > cfg.MaxBlockSize {
			warnings = append(warnings, models.BlockWarning{Key: key, Size: len(members)})
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if members[i] == members[j] {
					continue
				}
				pairSet[models.NewCandidatePair(members[i], members[j])] = struct{}{}
			}
		}
	}

	// City-wide fallback: each sparse listing is compared against everything
	// in its city. Well-attributed listings are not cross-paired through it.
	cities := make([]string, 0, len(sparse))
	for city := range sparse {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	for _, city := range cities {
		all := byCity[city]
		if len(all) > cfg.MaxBlockSize {
			warnings = append(warnings, models.BlockWarning{Key: fmt.Sprintf("city|%s", city), Size: len(all)})
		}
		for _, id := range sparse[city] {
			for _, other := range all {
				if other == id {
					continue
				}
				pairSet[models.NewCandidatePair(id, other)] = struct{}{}
			}
		}
	}

	pairs := make([]models.CandidatePair, 0, len(pairSet))
	for pair := range pairSet {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	return pairs, warnings
}
