package models

import "time"

type Source string

const (
	SourceSeLoger   Source = "seloger"
	SourceLeBonCoin Source = "leboncoin"
)

type ListingKind string

const (
	KindSale ListingKind = "sale"
	KindRent ListingKind = "rent"
)

// Listing is a scraped ad as delivered by the ingestion side. Price, surface
// and rooms are pointers because the source pages frequently omit them; a nil
// value means unknown, never zero.
type Listing struct {
	ID              string      `json:"id" db:"id"`
	Source          Source      `json:"source" db:"source"`
	Title           string      `json:"title" db:"title"`
	URL             string      `json:"url" db:"url"`
	Price           *int        `json:"price" db:"price"` // EUR
	City            string      `json:"city" db:"city"`
	PostalCode      string      `json:"postal_code" db:"postal_code"`
	Kind            ListingKind `json:"listing_type" db:"listing_type"`
	PropertyType    string      `json:"property_type" db:"property_type"`
	Rooms           *int        `json:"rooms" db:"rooms"`
	Surface         *float64    `json:"surface" db:"surface"` // m²
	AgencyOrPrivate string      `json:"agency_or_private" db:"agency_or_private"`
	Description     string      `json:"description" db:"description"`
	ScrapedAt       time.Time   `json:"scraped_at" db:"scraped_at"`
}

// KnownFieldCount counts the fields that carry usable matching signal. Used
// for canonical-representative selection inside a cluster.
func (l *Listing) KnownFieldCount() int {
	n := 0
	if l.Title != "" {
		n++
	}
	if l.City != "" {
		n++
	}
	if l.Price != nil {
		n++
	}
	if l.Surface != nil {
		n++
	}
	if l.Rooms != nil {
		n++
	}
	if l.Description != "" {
		n++
	}
	return n
}

// NormalizedListing is the comparable form of a Listing. It is derived once
// per batch and never mutated afterwards.
type NormalizedListing struct {
	ID        string
	City      string // canonical: lower-cased, accent-stripped, alias-mapped; "" = unknown
	Price     *int
	PriceLow  int // ±5% tolerance band, zero when price unknown
	PriceHigh int
	Surface   *float64
	Rooms     *int
	Tokens    map[string]struct{} // title + description, stop-word filtered

	// Carried through for canonical selection.
	KnownFields int
	ScrapedAt   time.Time
}

// CandidatePair is an unordered pair of listing IDs. A is always the smaller
// identifier so the pair can be used as a map key.
type CandidatePair struct {
	A string
	B string
}

func NewCandidatePair(a, b string) CandidatePair {
	if b < a {
		a, b = b, a
	}
	return CandidatePair{A: a, B: b}
}

// FeatureBreakdown records the per-feature evidence behind a pair score.
// Pointer fields are nil when the feature was excluded because an input was
// missing on either side.
type FeatureBreakdown struct {
	CityMatch        bool     `json:"city_match"`
	PriceCloseness   *float64 `json:"price_closeness"`
	SurfaceCloseness *float64 `json:"surface_closeness"`
	RoomMatch        *bool    `json:"room_match"`
	TextSimilarity   *float64 `json:"text_similarity"`
}

// SimilarityScore is the composite score for one candidate pair.
type SimilarityScore struct {
	Pair     CandidatePair    `json:"pair"`
	Score    float64          `json:"score"`
	Features FeatureBreakdown `json:"features"`
}

// BlockWarning signals that a blocking bucket exceeded the configured size
// limit. Informational only: all pairs inside the block were still compared.
type BlockWarning struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// Cluster is one equivalence class of listings believed to describe the same
// physical property. Rebuilt wholesale on every run.
type Cluster struct {
	Members     []string // sorted listing IDs
	CanonicalID string
	Confidence  float64 // min scored intra-cluster pair; 1.0 for singletons
}

// EvidenceSummary is what the presentation side receives per cluster: the
// membership plus every scored pair that justified (or weakened) it.
type EvidenceSummary struct {
	Members     []string          `json:"members"`
	CanonicalID string            `json:"canonical_id"`
	Confidence  float64           `json:"confidence"`
	Pairs       []SimilarityScore `json:"pairs"`
}
