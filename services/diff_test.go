package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"joreca_dedup/models"
)

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func crossSourcePair(title string, price int) (*models.Listing, *models.Listing) {
	se := &models.Listing{
		ID:        "se-" + title,
		Source:    models.SourceSeLoger,
		Title:     title,
		URL:       "https://seloger.example/" + title,
		City:      "Paris",
		Kind:      models.KindSale,
		Price:     intp(price),
		Surface:   floatp(50),
		Rooms:     intp(2),
		ScrapedAt: testBase,
	}
	lb := &models.Listing{
		ID:        "lb-" + title,
		Source:    models.SourceLeBonCoin,
		Title:     title,
		URL:       "https://leboncoin.example/" + title,
		City:      "Paris",
		Kind:      models.KindSale,
		Price:     intp(price),
		Surface:   floatp(50),
		Rooms:     intp(2),
		ScrapedAt: testBase.Add(time.Hour),
	}
	return se, lb
}

func TestComputeDiffPartition(t *testing.T) {
	se1, lb1 := crossSourcePair("shared", 300000)
	seOnly, _ := crossSourcePair("seloger only", 400000)
	_, lbOnly := crossSourcePair("leboncoin only", 500000)

	report := ComputeDiff([]*models.Listing{se1, lb1, seOnly, lbOnly})

	if len(report.OnlySeLoger) != 1 || report.OnlySeLoger[0].ID != seOnly.ID {
		t.Fatalf("unexpected seloger-only set: %v", report.OnlySeLoger)
	}
	if len(report.OnlyLeBonCoin) != 1 || report.OnlyLeBonCoin[0].ID != lbOnly.ID {
		t.Fatalf("unexpected leboncoin-only set: %v", report.OnlyLeBonCoin)
	}
	// The shared pair is field-identical, so no mismatches.
	if len(report.Mismatches) != 0 {
		t.Fatalf("unexpected mismatches: %v", report.Mismatches)
	}
}

func TestComputeDiffFieldMismatch(t *testing.T) {
	se, lb := crossSourcePair("shared", 300000)
	se.PostalCode = "75015"
	lb.PostalCode = "75016"
	lb.AgencyOrPrivate = "private"

	report := ComputeDiff([]*models.Listing{se, lb})

	if len(report.Mismatches) != 2 {
		t.Fatalf("expected 2 mismatches, got %v", report.Mismatches)
	}
	first := report.Mismatches[0]
	if first.Field != "postal_code" || first.SeLoger != "75015" || first.LeBonCoin != "75016" {
		t.Fatalf("unexpected mismatch %+v", first)
	}
	if first.URLSeLoger != se.URL || first.URLLeBonCoin != lb.URL {
		t.Fatalf("mismatch must carry both URLs, got %+v", first)
	}
	second := report.Mismatches[1]
	if second.Field != "agency_or_private" || second.SeLoger != "" || second.LeBonCoin != "private" {
		t.Fatalf("unexpected mismatch %+v", second)
	}
}

func TestComputeDiffSkipsBothEmpty(t *testing.T) {
	se, lb := crossSourcePair("shared", 300000)
	se.PropertyType = ""
	lb.PropertyType = ""

	report := ComputeDiff([]*models.Listing{se, lb})
	for _, m := range report.Mismatches {
		if m.Field == "property_type" {
			t.Fatalf("fields empty on both sides must not be reported")
		}
	}
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()

	se, lb := crossSourcePair("shared", 300000)
	lb.PostalCode = "75016"
	seOnly, _ := crossSourcePair("solo", 400000)

	report := ComputeDiff([]*models.Listing{se, lb, seOnly})
	if err := report.WriteCSV(dir); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	for _, name := range []string{"only_seloger.csv", "only_leboncoin.csv", "mismatches.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

func TestExactDuplicateIDs(t *testing.T) {
	se, lb := crossSourcePair("shared", 300000)
	other, _ := crossSourcePair("unique", 700000)

	ids := ExactDuplicateIDs([]*models.Listing{lb, se, other})

	// se was scraped first, so the later leboncoin copy is flagged.
	if len(ids) != 1 || ids[0] != lb.ID {
		t.Fatalf("expected only %s flagged, got %v", lb.ID, ids)
	}
}

func TestExactDuplicateIDsTieBreakByID(t *testing.T) {
	se, lb := crossSourcePair("shared", 300000)
	lb.ScrapedAt = se.ScrapedAt

	ids := ExactDuplicateIDs([]*models.Listing{se, lb})

	// Same timestamp: the smaller ID ("lb-shared" < "se-shared") is kept.
	if len(ids) != 1 || ids[0] != se.ID {
		t.Fatalf("expected %s flagged on timestamp tie, got %v", se.ID, ids)
	}
}
