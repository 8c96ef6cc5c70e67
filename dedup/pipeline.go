package dedup

import (
	"joreca_dedup/models"
)

// Engine runs the batch detection pipeline: normalize, block, score, cluster,
// summarize. Each stage consumes the immutable output of the previous one;
// two calls with the same input and config produce identical results.
type Engine struct {
	cfg  Config
	norm *Normalizer
}

// New validates the configuration up front. A *ConfigurationError here means
// the caller misconfigured the run; nothing is partially processed.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:  cfg,
		norm: NewNormalizer(cfg.CityAliases),
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Result carries everything a run produces: one summary per cluster (every
// accepted listing appears in exactly one), non-fatal block-size warnings,
// and the listings rejected before normalization.
type Result struct {
	Summaries []models.EvidenceSummary
	Warnings  []models.BlockWarning
	Rejected  []InvalidListingError
}

// DuplicateSets counts clusters with more than one member.
func (r *Result) DuplicateSets() int {
	n := 0
	for _, s := range r.Summaries {
		if len(s.Members) > 1 {
			n++
		}
	}
	return n
}

// Detect partitions the batch into same-property clusters. Listings without
// an identifier, or whose identifier collides with an earlier one in the
// batch, are rejected individually; the rest of the batch still runs.
func (e *Engine) Detect(listings []*models.Listing) (*Result, error) {
	result := &Result{}

	seen := make(map[string]struct{}, len(listings))
	accepted := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		if l.ID == "" {
			result.Rejected = append(result.Rejected, InvalidListingError{Reason: "missing identifier"})
			continue
		}
		if _, dup := seen[l.ID]; dup {
			result.Rejected = append(result.Rejected, InvalidListingError{ID: l.ID, Reason: "duplicate identifier in batch"})
			continue
		}
		seen[l.ID] = struct{}{}
		accepted = append(accepted, l)
	}

	normalized := make([]models.NormalizedListing, len(accepted))
	for i, l := range accepted {
		normalized[i] = e.norm.Normalize(l)
	}

	pairs, warnings := GenerateCandidates(normalized, e.cfg)
	result.Warnings = warnings

	byID := make(map[string]*models.NormalizedListing, len(normalized))
	for i := range normalized {
		byID[normalized[i].ID] = &normalized[i]
	}

	scores := make([]models.SimilarityScore, 0, len(pairs))
	for _, pair := range pairs {
		scores = append(scores, Score(byID[pair.A], byID[pair.B], e.cfg.Weights))
	}

	clusters := BuildClusters(normalized, scores, e.cfg.SimilarityThreshold)
	result.Summaries = Summarize(clusters, scores)

	return result, nil
}
