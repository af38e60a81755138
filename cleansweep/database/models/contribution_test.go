package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }

func TestEffectiveWeightLbs(t *testing.T) {
	tests := []struct {
		name   string
		record ContributionRecord
		want   float64
	}{
		{
			name:   "pounds pass through",
			record: ContributionRecord{WeightValue: 10, WeightUnit: WeightUnitLbs, Status: ContributionStatusApproved},
			want:   10,
		},
		{
			name:   "kilograms normalize",
			record: ContributionRecord{WeightValue: 10, WeightUnit: WeightUnitKg, Status: ContributionStatusApproved},
			want:   22.0462,
		},
		{
			name: "adjusted weight preferred",
			record: ContributionRecord{
				WeightValue:    10,
				WeightUnit:     WeightUnitLbs,
				Status:         ContributionStatusAdjusted,
				AdjustedWeight: ptrFloat(8),
			},
			want: 8,
		},
		{
			name: "adjusted unit preferred",
			record: ContributionRecord{
				WeightValue:        10,
				WeightUnit:         WeightUnitLbs,
				Status:             ContributionStatusAdjusted,
				AdjustedWeight:     ptrFloat(5),
				AdjustedWeightUnit: ptrString(WeightUnitKg),
			},
			want: 5 * LbsPerKg,
		},
		{
			name: "adjusted fields ignored unless status adjusted",
			record: ContributionRecord{
				WeightValue:    10,
				WeightUnit:     WeightUnitLbs,
				Status:         ContributionStatusApproved,
				AdjustedWeight: ptrFloat(99),
			},
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.record.EffectiveWeightLbs(), 1e-9)
		})
	}
}

func TestEffectiveBagsAndDuration(t *testing.T) {
	rec := ContributionRecord{
		BagsCollected:   7,
		DurationMinutes: 90,
		Status:          ContributionStatusAdjusted,
		AdjustedBags:    ptrInt(5),
	}

	assert.Equal(t, 5, rec.EffectiveBags())
	// No adjusted duration set: fall back to the reported value.
	assert.Equal(t, 90, rec.EffectiveDurationMinutes())

	rec.AdjustedDuration = ptrInt(60)
	assert.Equal(t, 60, rec.EffectiveDurationMinutes())
}

func TestCountsForAggregation(t *testing.T) {
	assert.True(t, (&ContributionRecord{Status: ContributionStatusApproved}).CountsForAggregation())
	assert.True(t, (&ContributionRecord{Status: ContributionStatusAdjusted}).CountsForAggregation())
	assert.False(t, (&ContributionRecord{Status: ContributionStatusPending}).CountsForAggregation())
	assert.False(t, (&ContributionRecord{Status: ContributionStatusRejected}).CountsForAggregation())
}
