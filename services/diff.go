package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"joreca_dedup/identity"
	"joreca_dedup/models"
)

// DiffReport compares the two sources: which ads exist only on one site, and
// where the same ad (by fingerprint) disagrees field by field.
type DiffReport struct {
	OnlySeLoger   []*models.Listing
	OnlyLeBonCoin []*models.Listing
	Mismatches    []FieldMismatch
}

// FieldMismatch is one disagreeing field between the SeLoger and LeBonCoin
// copies of a fingerprint-matched ad.
type FieldMismatch struct {
	Fingerprint  string
	Field        string
	SeLoger      string
	LeBonCoin    string
	URLSeLoger   string
	URLLeBonCoin string
}

// DiffService produces cross-source reports from the stored listings.
type DiffService struct {
	store Store
}

func NewDiffService(store Store) *DiffService {
	return &DiffService{store: store}
}

func (s *DiffService) Report(ctx context.Context) (*DiffReport, error) {
	listings, err := s.store.GetAllListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	return ComputeDiff(listings), nil
}

// ComputeDiff partitions listings by fingerprint presence per source. When a
// fingerprint appears on both sites, the first listing of each source is
// compared field by field.
func ComputeDiff(listings []*models.Listing) *DiffReport {
	bySource := map[models.Source]map[string]*models.Listing{
		models.SourceSeLoger:   {},
		models.SourceLeBonCoin: {},
	}
	for _, l := range listings {
		fps, ok := bySource[l.Source]
		if !ok {
			continue
		}
		fp := identity.Fingerprint(l)
		if _, seen := fps[fp]; !seen {
			fps[fp] = l
		}
	}

	report := &DiffReport{}
	se := bySource[models.SourceSeLoger]
	lb := bySource[models.SourceLeBonCoin]

	var common []string
	for fp, l := range se {
		if _, ok := lb[fp]; ok {
			common = append(common, fp)
		} else {
			report.OnlySeLoger = append(report.OnlySeLoger, l)
		}
	}
	for fp, l := range lb {
		if _, ok := se[fp]; !ok {
			report.OnlyLeBonCoin = append(report.OnlyLeBonCoin, l)
		}
	}
	sort.Strings(common)
	sortListings(report.OnlySeLoger)
	sortListings(report.OnlyLeBonCoin)

	for _, fp := range common {
		report.Mismatches = append(report.Mismatches, compareFields(fp, se[fp], lb[fp])...)
	}

	return report
}

func sortListings(listings []*models.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].ID < listings[j].ID
	})
}

var comparedFields = []string{
	"title", "city", "postal_code", "listing_type", "property_type",
	"rooms", "surface", "price", "agency_or_private",
}

func compareFields(fp string, a, b *models.Listing) []FieldMismatch {
	var out []FieldMismatch
	for _, field := range comparedFields {
		av, bv := fieldValue(a, field), fieldValue(b, field)
		if av == "" && bv == "" {
			continue
		}
		if av != bv {
			out = append(out, FieldMismatch{
				Fingerprint:  fp,
				Field:        field,
				SeLoger:      av,
				LeBonCoin:    bv,
				URLSeLoger:   a.URL,
				URLLeBonCoin: b.URL,
			})
		}
	}
	return out
}

func fieldValue(l *models.Listing, field string) string {
	switch field {
	case "title":
		return l.Title
	case "city":
		return l.City
	case "postal_code":
		return l.PostalCode
	case "listing_type":
		return string(l.Kind)
	case "property_type":
		return l.PropertyType
	case "rooms":
		if l.Rooms == nil {
			return ""
		}
		return strconv.Itoa(*l.Rooms)
	case "surface":
		if l.Surface == nil {
			return ""
		}
		return strconv.FormatFloat(*l.Surface, 'f', -1, 64)
	case "price":
		if l.Price == nil {
			return ""
		}
		return strconv.Itoa(*l.Price)
	case "agency_or_private":
		return l.AgencyOrPrivate
	}
	return ""
}

// WriteCSV exports the report as three files in dir: only_seloger.csv,
// only_leboncoin.csv, mismatches.csv.
func (r *DiffReport) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeListingsCSV(filepath.Join(dir, "only_seloger.csv"), r.OnlySeLoger); err != nil {
		return err
	}
	if err := writeListingsCSV(filepath.Join(dir, "only_leboncoin.csv"), r.OnlyLeBonCoin); err != nil {
		return err
	}
	return writeMismatchesCSV(filepath.Join(dir, "mismatches.csv"), r.Mismatches)
}

func writeListingsCSV(path string, listings []*models.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "source", "title", "url", "price", "city", "postal_code",
		"listing_type", "property_type", "rooms", "surface", "agency_or_private"}); err != nil {
		return err
	}
	for _, l := range listings {
		record := []string{
			l.ID, string(l.Source), l.Title, l.URL,
			fieldValue(l, "price"), l.City, l.PostalCode,
			string(l.Kind), l.PropertyType,
			fieldValue(l, "rooms"), fieldValue(l, "surface"), l.AgencyOrPrivate,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeMismatchesCSV(path string, mismatches []FieldMismatch) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"fingerprint", "field", "seloger", "leboncoin", "url_seloger", "url_leboncoin"}); err != nil {
		return err
	}
	for _, m := range mismatches {
		if err := w.Write([]string{m.Fingerprint, m.Field, m.SeLoger, m.LeBonCoin, m.URLSeLoger, m.URLLeBonCoin}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
