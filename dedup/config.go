package dedup

import "math"

// Weights holds the per-feature weights of the composite score. They must sum
// to 1.0; redistribution for missing features happens at scoring time.
type Weights struct {
	City    float64 `yaml:"city"`
	Price   float64 `yaml:"price"`
	Surface float64 `yaml:"surface"`
	Rooms   float64 `yaml:"rooms"`
	Text    float64 `yaml:"text"`
}

// Config tunes the detection pipeline. Zero values are invalid; start from
// DefaultConfig and override.
type Config struct {
	SimilarityThreshold float64           `yaml:"similarity_threshold"`
	Weights             Weights           `yaml:"feature_weights"`
	PriceBucketSize     int               `yaml:"price_bucket_size"`    // EUR
	SurfaceBucketSize   float64           `yaml:"surface_bucket_size"`  // m²
	MaxBlockSize        int               `yaml:"max_block_size"`
	CityAliases         map[string]string `yaml:"city_aliases"`
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.75,
		Weights: Weights{
			City:    0.25,
			Price:   0.25,
			Surface: 0.25,
			Rooms:   0.10,
			Text:    0.15,
		},
		PriceBucketSize:   10000,
		SurfaceBucketSize: 5,
		MaxBlockSize:      500,
	}
}

const weightSumTolerance = 1e-6

// Validate checks the configuration before any work starts. A bad config
// aborts the whole run; it is caller error, not data error.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return &ConfigurationError{Field: "similarity_threshold", Reason: "must be in [0,1]"}
	}
	for _, w := range []float64{c.Weights.City, c.Weights.Price, c.Weights.Surface, c.Weights.Rooms, c.Weights.Text} {
		if w < 0 {
			return &ConfigurationError{Field: "feature_weights", Reason: "weights must be non-negative"}
		}
	}
	sum := c.Weights.City + c.Weights.Price + c.Weights.Surface + c.Weights.Rooms + c.Weights.Text
	if sum == 0 {
		return &ConfigurationError{Field: "feature_weights", Reason: "weights sum to zero"}
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return &ConfigurationError{Field: "feature_weights", Reason: "weights must sum to 1.0"}
	}
	if c.PriceBucketSize <= 0 {
		return &ConfigurationError{Field: "price_bucket_size", Reason: "must be positive"}
	}
	if c.SurfaceBucketSize <= 0 {
		return &ConfigurationError{Field: "surface_bucket_size", Reason: "must be positive"}
	}
	if c.MaxBlockSize <= 0 {
		return &ConfigurationError{Field: "max_block_size", Reason: "must be positive"}
	}
	return nil
}
