package models

import (
	"time"

	"github.com/uptrace/bun"
)

type LeaderboardEntry struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:le"`

	ID            int64     `bun:"id,pk,autoincrement"`
	EntityKind    string    `bun:"entity_kind,notnull"`
	EntityID      int64     `bun:"entity_id,notnull"`
	EntityName    string    `bun:"entity_name,notnull"`
	MetricType    string    `bun:"metric_type,notnull"`
	TimeWindow    string    `bun:"time_window,notnull"`
	LocationScope string    `bun:"location_scope,notnull"`
	LocationValue *string   `bun:"location_value"`
	Score         float64   `bun:"score,notnull"`
	Rank          int       `bun:"rank,notnull"`
	ComputedAt    time.Time `bun:"computed_at,notnull"`
}

// Entity kind constants
const (
	EntityKindUser = "User"
	EntityKindTeam = "Team"
)

// Metric type constants
const (
	MetricTypeEvents = "Events"
	MetricTypeBags   = "Bags"
	MetricTypeWeight = "Weight"
	MetricTypeHours  = "Hours"
)

// Time window constants
const (
	TimeWindowWeek    = "Week"
	TimeWindowMonth   = "Month"
	TimeWindowYear    = "Year"
	TimeWindowAllTime = "AllTime"
)

// Location scope constants
const (
	LocationScopeGlobal = "Global"
	LocationScopeRegion = "Region"
	LocationScopeCity   = "City"
)

// MetricTypes lists every metric in computation order.
var MetricTypes = []string{MetricTypeEvents, MetricTypeBags, MetricTypeWeight, MetricTypeHours}

// TimeWindows lists every window in computation order.
var TimeWindows = []string{TimeWindowWeek, TimeWindowMonth, TimeWindowYear, TimeWindowAllTime}

// WindowStart returns the inclusive lower bound of a time window relative to
// now, or nil for the unfiltered all-time window.
func WindowStart(window string, now time.Time) *time.Time {
	var start time.Time
	switch window {
	case TimeWindowWeek:
		start = now.AddDate(0, 0, -7)
	case TimeWindowMonth:
		start = now.AddDate(0, -1, 0)
	case TimeWindowYear:
		start = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &start
}
