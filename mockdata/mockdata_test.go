package mockdata

import (
	"testing"

	"joreca_dedup/dedup"
	"joreca_dedup/models"
)

func TestRowsReproducible(t *testing.T) {
	first := New(42).Rows(30, 0.3)
	second := New(42).Rows(30, 0.3)

	if len(first) != len(second) {
		t.Fatalf("row counts diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("row %d diverged: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestRowsCount(t *testing.T) {
	rows := New(7).Rows(25, 0.3)
	if len(rows) != 25 {
		t.Fatalf("expected 25 rows, got %d", len(rows))
	}
	if New(7).Rows(0, 0.3) != nil {
		t.Fatalf("zero total must produce no rows")
	}
}

func TestRowsPlausible(t *testing.T) {
	for _, l := range New(3).Rows(40, 0.2) {
		if l.ID == "" {
			t.Fatalf("row without ID: %+v", l)
		}
		if l.Source != models.SourceSeLoger && l.Source != models.SourceLeBonCoin {
			t.Fatalf("unexpected source %q", l.Source)
		}
		if l.City == "" || l.Title == "" {
			t.Fatalf("row missing city or title: %+v", l)
		}
		if l.Price != nil && *l.Price < 0 {
			t.Fatalf("negative price: %d", *l.Price)
		}
	}
}

func TestCuratedPairsShape(t *testing.T) {
	rows := New(11).CuratedPairs(8)
	if len(rows) != 16 {
		t.Fatalf("expected 16 rows, got %d", len(rows))
	}
	for i := 0; i < len(rows); i += 2 {
		a, b := rows[i], rows[i+1]
		if a.Source != models.SourceSeLoger || b.Source != models.SourceLeBonCoin {
			t.Fatalf("pair %d has wrong sources: %s / %s", i/2, a.Source, b.Source)
		}
		if a.City != b.City || a.Title != b.Title {
			t.Fatalf("pair %d drifted apart: %+v vs %+v", i/2, a, b)
		}
		if a.ID == b.ID {
			t.Fatalf("pair %d shares an ID", i/2)
		}
	}
}

func TestCuratedPairsDetected(t *testing.T) {
	engine, err := dedup.New(dedup.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	rows := New(42).CuratedPairs(10)
	result, err := engine.Detect(rows)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", result.Rejected)
	}

	clusterOf := make(map[string]int)
	for i, s := range result.Summaries {
		for _, id := range s.Members {
			clusterOf[id] = i
		}
	}

	for i := 0; i < len(rows); i += 2 {
		a, b := rows[i], rows[i+1]
		// A pair whose clone lost its surface can also land in a different
		// price band; only surface-complete pairs are guaranteed to block
		// together.
		if b.Surface == nil {
			continue
		}
		if clusterOf[a.ID] != clusterOf[b.ID] {
			t.Fatalf("curated pair %d not clustered: %s vs %s", i/2, a.ID, b.ID)
		}
	}
}
