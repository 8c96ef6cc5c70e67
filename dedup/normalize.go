package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"joreca_dedup/identity"
	"joreca_dedup/models"
)

// priceTolerancePct is the ± band attached to a known price, kept alongside
// the exact value for downstream consumers.
const priceTolerancePct = 5

// stopWords are filtered out of title/description tokens. French first since
// both sources are French sites, plus the English words that show up in
// cross-posted ads.
var stopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "de": {}, "des": {}, "du": {},
	"un": {}, "une": {}, "et": {}, "en": {}, "au": {}, "aux": {},
	"dans": {}, "avec": {}, "pour": {}, "sur": {}, "par": {}, "ou": {},
	"the": {}, "in": {}, "with": {}, "for": {}, "of": {}, "and": {}, "to": {},
}

// Normalizer derives the comparable form of listings. It is pure: no I/O, no
// mutation of its input.
type Normalizer struct {
	aliases map[string]string // canonicalized raw city -> canonical city
}

func NewNormalizer(cityAliases map[string]string) *Normalizer {
	aliases := make(map[string]string, len(cityAliases))
	for raw, canonical := range cityAliases {
		aliases[canonicalCity(raw)] = canonicalCity(canonical)
	}
	return &Normalizer{aliases: aliases}
}

// Normalize is total: any well-formed listing yields a normalized record,
// with unknown markers carried through rather than defaulted.
func (n *Normalizer) Normalize(l *models.Listing) models.NormalizedListing {
	out := models.NormalizedListing{
		ID:          l.ID,
		City:        n.City(l.City),
		Tokens:      Tokenize(l.Title + " " + l.Description),
		KnownFields: l.KnownFieldCount(),
		ScrapedAt:   l.ScrapedAt,
	}

	if l.Price != nil {
		price := *l.Price
		out.Price = &price
		out.PriceLow = price - price*priceTolerancePct/100
		out.PriceHigh = price + price*priceTolerancePct/100
	}
	if l.Surface != nil && *l.Surface > 0 {
		surface := *l.Surface
		out.Surface = &surface
	}
	if l.Rooms != nil && *l.Rooms >= 0 {
		rooms := *l.Rooms
		out.Rooms = &rooms
	}

	return out
}

// City maps a raw city string to its canonical token, applying the alias
// table after case folding and diacritic stripping.
func (n *Normalizer) City(raw string) string {
	city := canonicalCity(raw)
	if alias, ok := n.aliases[city]; ok {
		return alias
	}
	return city
}

func canonicalCity(raw string) string {
	city := stripDiacritics(strings.ToLower(strings.TrimSpace(raw)))
	return strings.Join(strings.Fields(city), "")
}

// Tokenize builds the lexical comparison set: lower-cased, accent-stripped,
// punctuation removed, stop words and single characters dropped.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(identity.NormalizeText(stripDiacritics(text))) {
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

func stripDiacritics(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}
