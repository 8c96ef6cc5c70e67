package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"joreca_dedup/models"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeText lower-cases, replaces punctuation with spaces and collapses
// whitespace. Matching the ingestion side's normalization keeps fingerprints
// stable across re-scrapes.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fingerprint hashes the fields that identify an ad regardless of which site
// published it. Two listings with equal fingerprints are exact duplicates;
// near-duplicates are left to the scoring engine.
func Fingerprint(l *models.Listing) string {
	combined := fmt.Sprintf("%s|%s|%s|%s|%s",
		l.Title,
		l.City,
		intField(l.Price),
		floatField(l.Surface),
		intField(l.Rooms),
	)
	hash := sha1.Sum([]byte(NormalizeText(combined)))
	return hex.EncodeToString(hash[:])
}

// StableID derives a deterministic listing ID for rows the scraper delivered
// without one.
func StableID(source models.Source, url, title string) string {
	raw := fmt.Sprintf("%s|%s|%s", source, url, title)
	hash := sha1.Sum([]byte(raw))
	return hex.EncodeToString(hash[:])
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
