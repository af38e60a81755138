package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	candidates []*models.Event
	attendees  map[int64][]int64
	err        error
}

func (f *fakeEventRepo) GetBackfillCandidates(_ context.Context) ([]*models.Event, error) {
	return f.candidates, f.err
}

func (f *fakeEventRepo) GetActiveAttendeeUserIDs(_ context.Context, eventID int64) ([]int64, error) {
	return f.attendees[eventID], nil
}

type fakeContributionRepo struct {
	inserted []*models.ContributionRecord
	err      error
}

func (f *fakeContributionRepo) InsertBatch(_ context.Context, records []*models.ContributionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

func TestAllocateBags(t *testing.T) {
	tests := []struct {
		name  string
		total int
		n     int
		want  []int
	}{
		{name: "uneven split", total: 10, n: 3, want: []int{4, 3, 3}},
		{name: "even split", total: 9, n: 3, want: []int{3, 3, 3}},
		{name: "single attendee", total: 7, n: 1, want: []int{7}},
		{name: "fewer bags than attendees", total: 2, n: 4, want: []int{1, 1, 0, 0}},
		{name: "zero bags", total: 0, n: 3, want: []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := allocateBags(tt.total, tt.n)
			assert.Equal(t, tt.want, got)

			sum := 0
			for _, s := range got {
				sum += s
			}
			assert.Equal(t, tt.total, sum, "allocated bags must sum to the total exactly")
		})
	}
}

func TestWeightShare(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		n     int
		want  float64
	}{
		{name: "rounds to one decimal", total: 10, n: 3, want: 3.3},
		{name: "exact division", total: 10, n: 4, want: 2.5},
		{name: "single attendee", total: 12.7, n: 1, want: 12.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, weightShare(tt.total, tt.n), 1e-9)
		})
	}
}

func TestSynthesizeRecords(t *testing.T) {
	event := &models.Event{
		ID:                    42,
		LegacyTotalBags:       10,
		LegacyTotalWeight:     30,
		LegacyWeightUnit:      models.WeightUnitLbs,
		LegacyDurationMinutes: 120,
	}

	records := synthesizeRecords(event, []int64{1, 2, 3})
	require.Len(t, records, 3)

	assert.Equal(t, 4, records[0].BagsCollected)
	assert.Equal(t, 3, records[1].BagsCollected)
	assert.Equal(t, 3, records[2].BagsCollected)

	for _, rec := range records {
		assert.Equal(t, int64(42), rec.EventID)
		assert.Equal(t, models.ContributionStatusApproved, rec.Status)
		assert.Equal(t, models.BackfillNote, rec.Notes)
		// Duration fans out whole: everyone was present for the full event.
		assert.Equal(t, 120, rec.DurationMinutes)
		assert.InDelta(t, 10.0, rec.WeightValue, 1e-9)
		assert.Equal(t, models.WeightUnitLbs, rec.WeightUnit)
	}
}

func TestBackfillRun(t *testing.T) {
	events := &fakeEventRepo{
		candidates: []*models.Event{
			{ID: 1, LegacyTotalBags: 10, LegacyWeightUnit: models.WeightUnitLbs, LegacyDurationMinutes: 60},
			{ID: 2, LegacyTotalWeight: 5, LegacyWeightUnit: models.WeightUnitKg},
		},
		attendees: map[int64][]int64{
			1: {1, 2, 3},
			2: {4},
		},
	}
	contributions := &fakeContributionRepo{}

	job := NewBackfillJob(events, contributions)
	result, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.EventsProcessed)
	assert.Equal(t, 4, result.RecordsCreated)
	assert.Len(t, contributions.inserted, 4)
}

func TestBackfillRunNoCandidates(t *testing.T) {
	job := NewBackfillJob(&fakeEventRepo{}, &fakeContributionRepo{})

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.EventsProcessed)
	assert.Zero(t, result.RecordsCreated)
}

func TestBackfillRunInsertFailure(t *testing.T) {
	events := &fakeEventRepo{
		candidates: []*models.Event{{ID: 1, LegacyTotalBags: 3}},
		attendees:  map[int64][]int64{1: {1, 2}},
	}
	contributions := &fakeContributionRepo{err: errors.New("connection reset")}

	job := NewBackfillJob(events, contributions)
	result, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, result.EventsProcessed)
	assert.Empty(t, contributions.inserted)
}

func TestBackfillSkipsEventsWithoutAttendees(t *testing.T) {
	events := &fakeEventRepo{
		candidates: []*models.Event{{ID: 1, LegacyTotalBags: 5}},
		attendees:  map[int64][]int64{},
	}
	contributions := &fakeContributionRepo{}

	job := NewBackfillJob(events, contributions)
	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.EventsProcessed)
	assert.Empty(t, contributions.inserted)
}
