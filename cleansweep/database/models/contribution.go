package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ContributionRecord struct {
	bun.BaseModel `bun:"table:contribution_records,alias:cr"`

	ID              int64   `bun:"id,pk,autoincrement"`
	EventID         int64   `bun:"event_id,notnull"`
	UserID          int64   `bun:"user_id,notnull"`
	BagsCollected   int     `bun:"bags_collected,notnull,default:0"`
	WeightValue     float64 `bun:"weight_value,notnull,default:0"`
	WeightUnit      string  `bun:"weight_unit,notnull,default:'lbs'"`
	DurationMinutes int     `bun:"duration_minutes,notnull,default:0"`
	Status          string  `bun:"status,notnull,default:'Pending'"`

	// Set by the review flow. When Status is Adjusted these values, not the
	// originals, are authoritative for aggregation.
	AdjustedBags       *int     `bun:"adjusted_bags"`
	AdjustedWeight     *float64 `bun:"adjusted_weight"`
	AdjustedWeightUnit *string  `bun:"adjusted_weight_unit"`
	AdjustedDuration   *int     `bun:"adjusted_duration"`

	Notes     string    `bun:"notes"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Contribution status constants
const (
	ContributionStatusPending  = "Pending"
	ContributionStatusApproved = "Approved"
	ContributionStatusRejected = "Rejected"
	ContributionStatusAdjusted = "Adjusted"
)

// Weight unit constants
const (
	WeightUnitLbs = "lbs"
	WeightUnitKg  = "kg"
)

// LbsPerKg converts recorded kilograms to the pound-equivalent used by every
// weight score.
const LbsPerKg = 2.20462

// BackfillNote marks synthesized records so they can be audited or excluded
// later.
const BackfillNote = "Backfilled from event-level totals"

// CountsForAggregation reports whether the record participates in score and
// achievement sums.
func (c *ContributionRecord) CountsForAggregation() bool {
	return c.Status == ContributionStatusApproved || c.Status == ContributionStatusAdjusted
}

// EffectiveBags returns the bag count with review adjustments applied.
func (c *ContributionRecord) EffectiveBags() int {
	if c.Status == ContributionStatusAdjusted && c.AdjustedBags != nil {
		return *c.AdjustedBags
	}
	return c.BagsCollected
}

// EffectiveWeightLbs returns the weight in pounds with review adjustments
// applied and kilograms normalized.
func (c *ContributionRecord) EffectiveWeightLbs() float64 {
	value, unit := c.WeightValue, c.WeightUnit
	if c.Status == ContributionStatusAdjusted {
		if c.AdjustedWeight != nil {
			value = *c.AdjustedWeight
		}
		if c.AdjustedWeightUnit != nil {
			unit = *c.AdjustedWeightUnit
		}
	}
	if unit == WeightUnitKg {
		return value * LbsPerKg
	}
	return value
}

// EffectiveDurationMinutes returns the duration with review adjustments
// applied.
func (c *ContributionRecord) EffectiveDurationMinutes() int {
	if c.Status == ContributionStatusAdjusted && c.AdjustedDuration != nil {
		return *c.AdjustedDuration
	}
	return c.DurationMinutes
}
