package dedup

import (
	"testing"
)

func TestCityCanonicalization(t *testing.T) {
	n := NewNormalizer(nil)

	if got := n.City("  Paris "); got != "paris" {
		t.Fatalf("expected paris, got %q", got)
	}
	if got := n.City("Saint-Étienne"); got != "saint-etienne" {
		t.Fatalf("expected saint-etienne, got %q", got)
	}
	if got := n.City("LA ROCHELLE"); got != "larochelle" {
		t.Fatalf("expected larochelle, got %q", got)
	}
}

func TestCityAliases(t *testing.T) {
	n := NewNormalizer(map[string]string{
		"Paris 15e":   "Paris 15",
		"Paris 15ème": "Paris 15",
	})

	a := n.City("paris 15E")
	b := n.City("Paris 15ÈME")
	if a != b {
		t.Fatalf("aliases did not converge: %q vs %q", a, b)
	}
	if a != "paris15" {
		t.Fatalf("expected paris15, got %q", a)
	}
}

func TestNormalizeUnknownMarkers(t *testing.T) {
	n := NewNormalizer(nil)

	l := testListing("a", "Paris", "Studio", nil, floatp(-3), nil)
	out := n.Normalize(l)

	if out.Price != nil {
		t.Fatalf("expected unknown price, got %v", *out.Price)
	}
	if out.Surface != nil {
		t.Fatalf("surface <= 0 must become unknown, got %v", *out.Surface)
	}
	if out.Rooms != nil {
		t.Fatalf("expected unknown rooms, got %v", *out.Rooms)
	}
}

func TestNormalizePriceBand(t *testing.T) {
	n := NewNormalizer(nil)

	l := testListing("a", "Paris", "Flat", intp(100000), nil, nil)
	out := n.Normalize(l)

	if out.Price == nil || *out.Price != 100000 {
		t.Fatalf("exact price must be kept")
	}
	if out.PriceLow != 95000 || out.PriceHigh != 105000 {
		t.Fatalf("expected band [95000,105000], got [%d,%d]", out.PriceLow, out.PriceHigh)
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Bel appartement à vendre dans le Château de Lyon")

	for _, want := range []string{"bel", "appartement", "vendre", "chateau", "lyon"} {
		if _, ok := tokens[want]; !ok {
			t.Fatalf("expected token %q in %v", want, tokens)
		}
	}
	for _, stop := range []string{"dans", "le", "de", "a"} {
		if _, ok := tokens[stop]; ok {
			t.Fatalf("stop word %q should be filtered", stop)
		}
	}
}

func TestNormalizeIsPure(t *testing.T) {
	n := NewNormalizer(nil)
	l := testListing("a", "Paris", "Flat", intp(100000), floatp(50), intp(2))

	first := n.Normalize(l)
	second := n.Normalize(l)

	if first.City != second.City || *first.Price != *second.Price {
		t.Fatalf("normalize must be deterministic")
	}
	if l.City != "Paris" {
		t.Fatalf("normalize must not mutate its input")
	}
}
