// Package mockdata produces realistic SeLoger/LeBonCoin rows with a
// controllable duplicate ratio. Used to seed a fresh database and by tests
// that need batches larger than hand-written fixtures.
package mockdata

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"joreca_dedup/models"
)

var cities = []struct {
	Name   string
	Postal string
}{
	{"Paris", "75000"},
	{"Lyon", "69000"},
	{"Marseille", "13000"},
	{"Toulouse", "31000"},
	{"Bordeaux", "33000"},
	{"Lille", "59000"},
}

var propertyTypes = []string{"apartment", "house", "studio"}
var agencyFlags = []string{"agency", "private"}

// Generator is seeded so test data is reproducible.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

func New(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now().UTC().Truncate(time.Second),
	}
}

// Rows generates total listings, roughly evenly split between sources, with
// dupRatio of them cloned onto the other source with slight variations.
func (g *Generator) Rows(total int, dupRatio float64) []*models.Listing {
	if total <= 0 {
		return nil
	}

	base := make([]*models.Listing, 0, total)
	for i := 0; i < max(1, total/2); i++ {
		base = append(base, g.randomListing(models.SourceSeLoger))
	}
	for len(base) < total {
		base = append(base, g.randomListing(models.SourceLeBonCoin))
	}

	numDups := int(float64(len(base)) * dupRatio)
	rows := append([]*models.Listing{}, base...)
	for i := 0; i < numDups && i < len(base); i++ {
		rows = append(rows, g.cloneToOtherSource(base[i]))
	}

	g.rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})
	if len(rows) > total {
		rows = rows[:total]
	}
	return rows
}

// CuratedPairs generates n cross-source duplicate pairs with the messiness
// seen in the wild: small price drift, occasionally a dropped field.
func (g *Generator) CuratedPairs(n int) []*models.Listing {
	var rows []*models.Listing
	for i := 0; i < n; i++ {
		a := g.randomListing(models.SourceSeLoger)

		b := *a
		b.Source = models.SourceLeBonCoin
		if a.Price != nil {
			drift := []int{0, 10, 50, -10, -50}[g.rng.Intn(5)]
			price := *a.Price + drift
			b.Price = &price
		}
		switch g.rng.Intn(4) {
		case 0:
			b.Price = nil
		case 1:
			b.Surface = nil
		case 2:
			b.Rooms = nil
		case 3:
			b.PostalCode = ""
		}
		b.ID = stableID(&b)

		rows = append(rows, a, &b)
	}
	return rows
}

func (g *Generator) randomListing(source models.Source) *models.Listing {
	city := cities[g.rng.Intn(len(cities))]
	propType := propertyTypes[g.rng.Intn(len(propertyTypes))]
	kind := models.KindSale
	price := 80000 + g.rng.Intn(1120000)
	if g.rng.Intn(2) == 0 {
		kind = models.KindRent
		price = 400 + g.rng.Intn(3100)
	}
	rooms := 1 + g.rng.Intn(5)
	surface := float64(18 + g.rng.Intn(122))

	l := &models.Listing{
		Source:          source,
		Title:           fmt.Sprintf("%s %d rooms %.0fm2 in %s", propType, rooms, surface, city.Name),
		Price:           &price,
		City:            city.Name,
		PostalCode:      city.Postal,
		Kind:            kind,
		PropertyType:    propType,
		Rooms:           &rooms,
		Surface:         &surface,
		AgencyOrPrivate: agencyFlags[g.rng.Intn(len(agencyFlags))],
		ScrapedAt:       g.now,
	}
	l.ID = stableID(l)
	return l
}

func (g *Generator) cloneToOtherSource(l *models.Listing) *models.Listing {
	clone := *l
	if l.Source == models.SourceSeLoger {
		clone.Source = models.SourceLeBonCoin
	} else {
		clone.Source = models.SourceSeLoger
	}

	if clone.Price != nil && g.rng.Float64() < 0.3 {
		price := *clone.Price + g.rng.Intn(101) - 50
		if price < 0 {
			price = 0
		}
		clone.Price = &price
	}
	if g.rng.Float64() < 0.2 {
		switch g.rng.Intn(3) {
		case 0:
			clone.Surface = nil
		case 1:
			clone.Rooms = nil
		case 2:
			clone.AgencyOrPrivate = ""
		}
	}

	clone.ID = stableID(&clone)
	return &clone
}

// stableID mirrors the ingestion side's fallback ID: a hash of the fields
// that identify the row, so repeated generation is idempotent.
func stableID(l *models.Listing) string {
	price := ""
	if l.Price != nil {
		price = fmt.Sprintf("%d", *l.Price)
	}
	surface := ""
	if l.Surface != nil {
		surface = fmt.Sprintf("%.1f", *l.Surface)
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", l.Source, l.Title, l.City, price, surface)
	hash := sha1.Sum([]byte(raw))
	return hex.EncodeToString(hash[:])
}
