package repositories

import (
	"context"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/uptrace/bun"
)

type ContributionRepository interface {
	// InsertBatch writes synthesized records in a single transaction: on any
	// error no row is left committed.
	InsertBatch(ctx context.Context, records []*models.ContributionRecord) error
}

type contributionRepository struct {
	*BaseRepository
}

func NewContributionRepository(db *bun.DB) ContributionRepository {
	return &contributionRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *contributionRepository) InsertBatch(ctx context.Context, records []*models.ContributionRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	for _, rec := range records {
		rec.CreatedAt = now
		rec.UpdatedAt = now
	}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&records).Exec(ctx)
		return err
	})
	return r.HandleError("batch_insert", "contribution records", err)
}
