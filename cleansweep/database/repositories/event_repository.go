package repositories

import (
	"context"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/uptrace/bun"
)

type EventRepository interface {
	// GetBackfillCandidates returns events with a non-zero legacy aggregate,
	// at least one non-canceled attendee, and no contribution records yet.
	GetBackfillCandidates(ctx context.Context) ([]*models.Event, error)

	// GetActiveAttendeeUserIDs returns the user ids of non-canceled attendees
	// of an event, ascending.
	GetActiveAttendeeUserIDs(ctx context.Context, eventID int64) ([]int64, error)
}

type eventRepository struct {
	*BaseRepository
}

func NewEventRepository(db *bun.DB) EventRepository {
	return &eventRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *eventRepository) GetBackfillCandidates(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := r.SelectWithTimeout(ctx, "select", "backfill candidates", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			Model(&events).
			Where("(e.legacy_total_bags > 0 OR e.legacy_total_weight > 0 OR e.legacy_duration_minutes > 0)").
			Where("EXISTS (SELECT 1 FROM event_attendees ea WHERE ea.event_id = e.id AND ea.canceled_at IS NULL)").
			Where("NOT EXISTS (SELECT 1 FROM contribution_records cr WHERE cr.event_id = e.id)").
			Order("id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) GetActiveAttendeeUserIDs(ctx context.Context, eventID int64) ([]int64, error) {
	var userIDs []int64
	err := r.SelectWithTimeout(ctx, "select", "event attendees", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			Model((*models.EventAttendee)(nil)).
			Column("user_id").
			Where("event_id = ?", eventID).
			Where("canceled_at IS NULL").
			Order("user_id ASC").
			Scan(ctx, &userIDs)
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
