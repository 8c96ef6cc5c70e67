package dedup

import (
	"testing"

	"joreca_dedup/models"
)

func normalizeAll(listings ...*models.Listing) []models.NormalizedListing {
	n := NewNormalizer(nil)
	out := make([]models.NormalizedListing, len(listings))
	for i, l := range listings {
		out[i] = n.Normalize(l)
	}
	return out
}

func TestGenerateCandidatesSameBlock(t *testing.T) {
	listings := normalizeAll(
		testListing("a", "Paris", "Flat", intp(300000), nil, nil),
		testListing("b", "Paris", "Flat", intp(305000), nil, nil),
	)

	pairs, warnings := GenerateCandidates(listings, DefaultConfig())
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0] != models.NewCandidatePair("a", "b") {
		t.Fatalf("unexpected pair %v", pairs[0])
	}
}

func TestGenerateCandidatesDifferentCities(t *testing.T) {
	listings := normalizeAll(
		testListing("a", "Paris", "Flat", intp(300000), floatp(50), nil),
		testListing("b", "Lyon", "Flat", intp(300000), floatp(50), nil),
	)

	pairs, _ := GenerateCandidates(listings, DefaultConfig())
	if len(pairs) != 0 {
		t.Fatalf("different cities must not be candidates, got %v", pairs)
	}
}

func TestGenerateCandidatesNoDuplicatePairs(t *testing.T) {
	// Same price band and same surface band: the pair comes out of two
	// blocks but must appear once.
	listings := normalizeAll(
		testListing("a", "Paris", "Flat", intp(300000), floatp(50), nil),
		testListing("b", "Paris", "Flat", intp(305000), floatp(52), nil),
	)

	pairs, _ := GenerateCandidates(listings, DefaultConfig())
	if len(pairs) != 1 {
		t.Fatalf("expected deduplicated pair set, got %v", pairs)
	}
}

func TestGenerateCandidatesNoSelfPairs(t *testing.T) {
	listings := normalizeAll(
		testListing("a", "Paris", "Flat", intp(300000), floatp(50), nil),
	)

	pairs, _ := GenerateCandidates(listings, DefaultConfig())
	if len(pairs) != 0 {
		t.Fatalf("single listing must produce no pairs, got %v", pairs)
	}
}

func TestGenerateCandidatesSparseFallback(t *testing.T) {
	// c has neither price nor surface: it must still be compared against
	// every listing in its city, whatever their bands.
	listings := normalizeAll(
		testListing("a", "Paris", "Flat", intp(300000), nil, nil),
		testListing("b", "Paris", "Flat", intp(900000), nil, nil),
		testListing("c", "Paris", "Flat", nil, nil, intp(2)),
	)

	pairs, _ := GenerateCandidates(listings, DefaultConfig())

	want := map[models.CandidatePair]bool{
		models.NewCandidatePair("a", "c"): false,
		models.NewCandidatePair("b", "c"): false,
	}
	for _, p := range pairs {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for pair, seen := range want {
		if !seen {
			t.Fatalf("sparse listing missing pair %v (got %v)", pair, pairs)
		}
	}
	// a and b share no price band; only the sparse record links to them.
	if len(pairs) != 2 {
		t.Fatalf("expected exactly 2 pairs, got %v", pairs)
	}
}

func TestGenerateCandidatesOversizedBlockWarning(t *testing.T) {
	listings := normalizeAll(
		testListing("a", "Paris", "Flat", intp(300000), nil, nil),
		testListing("b", "Paris", "Flat", intp(301000), nil, nil),
		testListing("c", "Paris", "Flat", intp(302000), nil, nil),
	)

	cfg := DefaultConfig()
	cfg.MaxBlockSize = 2

	pairs, warnings := GenerateCandidates(listings, cfg)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if warnings[0].Size != 3 {
		t.Fatalf("expected block size 3, got %d", warnings[0].Size)
	}
	// No truncation: all 3 pairs are still emitted.
	if len(pairs) != 3 {
		t.Fatalf("oversized block must still emit every pair, got %v", pairs)
	}
}
