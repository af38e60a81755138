package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	BatchQueryTimeout   = 2 * time.Minute

	// Aggregate loads issued concurrently by the ranking rebuild
	MaxConcurrentAggregates = 4
)

// Leaderboard Constants
const (
	// Minimum distinct qualifying events before an entity may appear on any
	// board, regardless of metric type.
	MinQualifyingEvents = 3
)
