package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID              int64     `bun:"id,pk,autoincrement"`
	Title           string    `bun:"title,notnull"`
	EventDate       time.Time `bun:"event_date,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull,default:0"`
	CreatedByID     int64     `bun:"created_by_id,notnull"`
	IsCanceled      bool      `bun:"is_canceled,notnull,default:false"`

	// Legacy event-level aggregates recorded before per-attendee reporting
	// existed. Non-zero values here drive the historical backfill.
	LegacyTotalBags       int     `bun:"legacy_total_bags,notnull,default:0"`
	LegacyTotalWeight     float64 `bun:"legacy_total_weight,notnull,default:0"`
	LegacyWeightUnit      string  `bun:"legacy_weight_unit,notnull,default:'lbs'"`
	LegacyDurationMinutes int     `bun:"legacy_duration_minutes,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// HasLegacyAggregates reports whether the event recorded any event-level
// totals that per-attendee records could be synthesized from.
func (e *Event) HasLegacyAggregates() bool {
	return e.LegacyTotalBags > 0 || e.LegacyTotalWeight > 0 || e.LegacyDurationMinutes > 0
}

type EventAttendee struct {
	bun.BaseModel `bun:"table:event_attendees,alias:ea"`

	ID         int64      `bun:"id,pk,autoincrement"`
	EventID    int64      `bun:"event_id,notnull"`
	UserID     int64      `bun:"user_id,notnull"`
	CanceledAt *time.Time `bun:"canceled_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
}
