package dedup

import "fmt"

// ConfigurationError aborts a run before any listing is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// InvalidListingError describes a single rejected listing. Rejections are
// per-record: the rest of the batch still runs.
type InvalidListingError struct {
	ID     string
	Reason string
}

func (e *InvalidListingError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid listing: %s", e.Reason)
	}
	return fmt.Sprintf("invalid listing %s: %s", e.ID, e.Reason)
}
