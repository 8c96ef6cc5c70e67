package dedup

import (
	"errors"
	"reflect"
	"testing"

	"joreca_dedup/models"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
	return e
}

func TestDetectNearDuplicates(t *testing.T) {
	e := testEngine(t)

	a := testListing("a", "Paris", "Bel appartement lumineux 2 pieces", intp(300000), floatp(50), intp(2))
	b := testListing("b", "Paris", "Bel appartement lumineux 2 pieces", intp(305000), floatp(50), intp(2))
	b.Source = models.SourceLeBonCoin
	c := testListing("c", "Lyon", "Maison avec jardin", intp(900000), floatp(120), intp(5))

	result, err := e.Detect([]*models.Listing{a, b, c})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", result.Rejected)
	}
	if len(result.Summaries) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(result.Summaries))
	}
	if result.DuplicateSets() != 1 {
		t.Fatalf("expected 1 duplicate set, got %d", result.DuplicateSets())
	}

	dup := result.Summaries[0]
	if len(dup.Members) != 2 || dup.Members[0] != "a" || dup.Members[1] != "b" {
		t.Fatalf("expected cluster {a,b}, got %v", dup.Members)
	}
	if dup.Confidence < 0.75 {
		t.Fatalf("duplicate cluster confidence below threshold: %v", dup.Confidence)
	}
	if len(dup.Pairs) != 1 {
		t.Fatalf("expected one evidence pair, got %v", dup.Pairs)
	}
}

func TestDetectSparseRecordStillClusters(t *testing.T) {
	e := testEngine(t)

	// b has neither price nor surface, so it only reaches a through the
	// city-wide fallback block.
	a := testListing("a", "Paris", "Studio meuble proche metro", intp(300000), nil, intp(2))
	b := testListing("b", "Paris", "Studio meuble proche metro", nil, nil, intp(2))

	result, err := e.Detect([]*models.Listing{a, b})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if result.DuplicateSets() != 1 {
		t.Fatalf("sparse record should still match, got %v", result.Summaries)
	}
}

func TestDetectCompleteness(t *testing.T) {
	e := testEngine(t)

	listings := []*models.Listing{
		testListing("a", "Paris", "Flat", intp(300000), nil, nil),
		testListing("b", "Paris", "Flat", intp(305000), nil, nil),
		testListing("c", "Lyon", "House", intp(900000), nil, nil),
		testListing("d", "", "No city at all", nil, nil, nil),
	}

	result, err := e.Detect(listings)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	seen := make(map[string]int)
	for _, s := range result.Summaries {
		for _, id := range s.Members {
			seen[id]++
		}
	}
	for _, l := range listings {
		if seen[l.ID] != 1 {
			t.Fatalf("listing %s appears %d times across clusters", l.ID, seen[l.ID])
		}
	}
}

func TestDetectDeterministic(t *testing.T) {
	e := testEngine(t)

	build := func(reversed bool) []*models.Listing {
		listings := []*models.Listing{
			testListing("a", "Paris", "Bel appartement lumineux", intp(300000), floatp(50), intp(2)),
			testListing("b", "Paris", "Bel appartement lumineux", intp(305000), floatp(50), intp(2)),
			testListing("c", "Lyon", "Maison avec jardin", intp(900000), floatp(120), intp(5)),
		}
		if reversed {
			for i, j := 0, len(listings)-1; i < j; i, j = i+1, j-1 {
				listings[i], listings[j] = listings[j], listings[i]
			}
		}
		return listings
	}

	first, err := e.Detect(build(false))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	second, err := e.Detect(build(false))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	reordered, err := e.Detect(build(true))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	if !reflect.DeepEqual(first.Summaries, second.Summaries) {
		t.Fatalf("repeated run diverged")
	}
	if !reflect.DeepEqual(first.Summaries, reordered.Summaries) {
		t.Fatalf("input order changed the result")
	}
}

func TestDetectRejections(t *testing.T) {
	e := testEngine(t)

	good := testListing("a", "Paris", "Flat", intp(300000), nil, nil)
	noID := testListing("", "Paris", "Flat", intp(300000), nil, nil)
	collision := testListing("a", "Lyon", "House", intp(900000), nil, nil)

	result, err := e.Detect([]*models.Listing{good, noID, nil, collision})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if len(result.Rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %v", result.Rejected)
	}
	if result.Rejected[0].Reason != "missing identifier" {
		t.Fatalf("unexpected reason %q", result.Rejected[0].Reason)
	}
	if result.Rejected[1].ID != "a" || result.Rejected[1].Reason != "duplicate identifier in batch" {
		t.Fatalf("unexpected rejection %v", result.Rejected[1])
	}
	// The first occurrence of "a" survives.
	if len(result.Summaries) != 1 || result.Summaries[0].CanonicalID != "a" {
		t.Fatalf("expected the first a to survive, got %v", result.Summaries)
	}
}

func TestDetectOversizedBlockStillGroups(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBlockSize = 2
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	result, err := e.Detect([]*models.Listing{
		testListing("a", "Paris", "Bel appartement lumineux", intp(300000), floatp(50), intp(2)),
		testListing("b", "Paris", "Bel appartement lumineux", intp(301000), floatp(50), intp(2)),
		testListing("c", "Paris", "Bel appartement lumineux", intp(302000), floatp(50), intp(2)),
	})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	if len(result.Warnings) == 0 {
		t.Fatalf("expected an oversized block warning")
	}
	if result.Warnings[0].Size != 3 {
		t.Fatalf("expected block size 3, got %d", result.Warnings[0].Size)
	}
	// The warning is informational: grouping is still complete.
	if len(result.Summaries) != 1 || len(result.Summaries[0].Members) != 3 {
		t.Fatalf("oversized block must still group fully, got %v", result.Summaries)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.SimilarityThreshold = -0.1 }},
		{"negative weight", func(c *Config) { c.Weights.City = -0.25 }},
		{"weights off unit sum", func(c *Config) { c.Weights.Text = 0.5 }},
		{"zero price bucket", func(c *Config) { c.PriceBucketSize = 0 }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		_, err := New(cfg)
		if err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected *ConfigurationError, got %T", tc.name, err)
		}
	}
}
