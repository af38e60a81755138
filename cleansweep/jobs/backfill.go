package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/cleansweep/cleansweep-cron/cleansweep/database/repositories"
)

// BackfillResult reports what a backfill run produced.
type BackfillResult struct {
	EventsProcessed int
	RecordsCreated  int
}

// BackfillJob synthesizes per-attendee contribution records for legacy
// events that only recorded event-level totals. The zero-existing-records
// guard in the candidate query makes it safe to run on every schedule tick.
type BackfillJob struct {
	events        repositories.EventRepository
	contributions repositories.ContributionRepository
}

func NewBackfillJob(events repositories.EventRepository, contributions repositories.ContributionRepository) *BackfillJob {
	return &BackfillJob{events: events, contributions: contributions}
}

func (j *BackfillJob) Name() string { return "historical-backfill" }

func (j *BackfillJob) Run(ctx context.Context) (BackfillResult, error) {
	var result BackfillResult

	candidates, err := j.events.GetBackfillCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load backfill candidates: %w", err)
	}
	if len(candidates) == 0 {
		slog.Debug("No backfill candidates found", slog.String("type", "job"), slog.String("job", j.Name()))
		return result, nil
	}

	var records []*models.ContributionRecord
	for _, event := range candidates {
		userIDs, err := j.events.GetActiveAttendeeUserIDs(ctx, event.ID)
		if err != nil {
			return BackfillResult{}, fmt.Errorf("failed to load attendees for event %d: %w", event.ID, err)
		}
		if len(userIDs) == 0 {
			continue
		}

		records = append(records, synthesizeRecords(event, userIDs)...)
		result.EventsProcessed++
	}

	// All events commit together: a failure leaves nothing partially written.
	if err := j.contributions.InsertBatch(ctx, records); err != nil {
		return BackfillResult{}, fmt.Errorf("failed to insert synthesized records: %w", err)
	}
	result.RecordsCreated = len(records)

	slog.Info("Backfill completed",
		slog.String("type", "job"),
		slog.String("job", j.Name()),
		slog.Int("events", result.EventsProcessed),
		slog.Int("records", result.RecordsCreated))
	return result, nil
}

// synthesizeRecords fair-splits an event's legacy totals across its
// attendees, ordered by user id ascending.
func synthesizeRecords(event *models.Event, userIDs []int64) []*models.ContributionRecord {
	bags := allocateBags(event.LegacyTotalBags, len(userIDs))
	weight := weightShare(event.LegacyTotalWeight, len(userIDs))

	records := make([]*models.ContributionRecord, 0, len(userIDs))
	for i, userID := range userIDs {
		records = append(records, &models.ContributionRecord{
			EventID:       event.ID,
			UserID:        userID,
			BagsCollected: bags[i],
			WeightValue:   weight,
			WeightUnit:    event.LegacyWeightUnit,
			// Everyone is assumed present for the whole event, so the
			// duration fans out whole rather than dividing.
			DurationMinutes: event.LegacyDurationMinutes,
			Status:          models.ContributionStatusApproved,
			Notes:           models.BackfillNote,
		})
	}
	return records
}

// allocateBags splits total across n attendees so the allocated sum equals
// total exactly: everyone gets the floor share and the first total mod n
// attendees get one extra.
func allocateBags(total, n int) []int {
	shares := make([]int, n)
	if n == 0 {
		return shares
	}
	base := total / n
	extra := total % n
	for i := range shares {
		shares[i] = base
		if i < extra {
			shares[i]++
		}
	}
	return shares
}

// weightShare divides the total evenly and rounds to one decimal. The
// rounded shares may not sum back to the original total when n does not
// divide evenly; that drift is accepted, not corrected.
func weightShare(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(total/float64(n)*10) / 10
}
