package models

import "time"

// CollectionConfig holds the per-run knobs of the collector. It is not
// modified once a run starts.
type CollectionConfig struct {
	MaxJobsPerSource     int
	DelayBetweenRequests time.Duration
	RetryAttempts        int
	Timeout              time.Duration
}

func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		MaxJobsPerSource:     100,
		DelayBetweenRequests: 2 * time.Second,
		RetryAttempts:        3,
		Timeout:              30 * time.Second,
	}
}
