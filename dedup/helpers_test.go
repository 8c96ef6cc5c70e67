package dedup

import (
	"time"

	"joreca_dedup/models"
)

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testListing(id, city, title string, price *int, surface *float64, rooms *int) *models.Listing {
	return &models.Listing{
		ID:        id,
		Source:    models.SourceSeLoger,
		Title:     title,
		City:      city,
		Kind:      models.KindSale,
		Price:     price,
		Surface:   surface,
		Rooms:     rooms,
		ScrapedAt: testBase,
	}
}

func normalize(l *models.Listing) models.NormalizedListing {
	return NewNormalizer(nil).Normalize(l)
}
