package repositories

import (
	"context"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/uptrace/bun"
)

type AchievementRepository interface {
	GetActiveDefinitions(ctx context.Context) ([]*models.AchievementDefinition, error)

	// The qualifying-user selects are set-based: each returns every user who
	// satisfies the criterion and does not already hold the definition.
	UsersWithEventsAttended(ctx context.Context, minCount int, definitionID int64) ([]int64, error)
	UsersWithBagsCollected(ctx context.Context, minBags int, definitionID int64) ([]int64, error)
	UsersWithEventsCreated(ctx context.Context, minCount int, definitionID int64) ([]int64, error)
	UsersOnActiveTeam(ctx context.Context, definitionID int64) ([]int64, error)

	// InsertGrants writes the grant rows in one transaction. The unique
	// (user, definition) index plus conflict skip keeps grants
	// at-most-once even under overlapping runs.
	InsertGrants(ctx context.Context, grants []*models.AchievementGrant) error
}

type achievementRepository struct {
	*BaseRepository
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	return &achievementRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *achievementRepository) GetActiveDefinitions(ctx context.Context) ([]*models.AchievementDefinition, error) {
	var definitions []*models.AchievementDefinition
	err := r.SelectWithTimeout(ctx, "select", "achievement definitions", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			Model(&definitions).
			Where("is_active = true").
			Order("id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

func (r *achievementRepository) UsersWithEventsAttended(ctx context.Context, minCount int, definitionID int64) ([]int64, error) {
	var userIDs []int64
	err := r.SelectWithTimeout(ctx, "select", "users by events attended", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			TableExpr("event_attendees AS ea").
			Join("JOIN events AS e ON e.id = ea.event_id").
			ColumnExpr("ea.user_id").
			Where("ea.canceled_at IS NULL").
			Where("e.is_canceled = false").
			Where("NOT EXISTS (SELECT 1 FROM achievement_grants ag WHERE ag.user_id = ea.user_id AND ag.achievement_definition_id = ?)", definitionID).
			GroupExpr("ea.user_id").
			Having("COUNT(DISTINCT e.id) >= ?", minCount).
			Scan(ctx, &userIDs)
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *achievementRepository) UsersWithBagsCollected(ctx context.Context, minBags int, definitionID int64) ([]int64, error) {
	var userIDs []int64
	err := r.SelectWithTimeout(ctx, "select", "users by bags collected", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			TableExpr("contribution_records AS cr").
			ColumnExpr("cr.user_id").
			Where("cr.status IN (?)", bun.In([]string{models.ContributionStatusApproved, models.ContributionStatusAdjusted})).
			Where("NOT EXISTS (SELECT 1 FROM achievement_grants ag WHERE ag.user_id = cr.user_id AND ag.achievement_definition_id = ?)", definitionID).
			GroupExpr("cr.user_id").
			Having(effectiveBagsExpr+" >= ?", minBags).
			Scan(ctx, &userIDs)
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *achievementRepository) UsersWithEventsCreated(ctx context.Context, minCount int, definitionID int64) ([]int64, error) {
	var userIDs []int64
	err := r.SelectWithTimeout(ctx, "select", "users by events created", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			TableExpr("events AS e").
			ColumnExpr("e.created_by_id").
			Where("e.is_canceled = false").
			Where("NOT EXISTS (SELECT 1 FROM achievement_grants ag WHERE ag.user_id = e.created_by_id AND ag.achievement_definition_id = ?)", definitionID).
			GroupExpr("e.created_by_id").
			Having("COUNT(*) >= ?", minCount).
			Scan(ctx, &userIDs)
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *achievementRepository) UsersOnActiveTeam(ctx context.Context, definitionID int64) ([]int64, error) {
	var userIDs []int64
	err := r.SelectWithTimeout(ctx, "select", "users on active team", func(ctx context.Context) error {
		return r.GetDB().NewSelect().
			TableExpr("team_members AS tm").
			Join("JOIN teams AS t ON t.id = tm.team_id").
			ColumnExpr("DISTINCT tm.user_id").
			Where("tm.left_at IS NULL").
			Where("t.is_active = true").
			Where("NOT EXISTS (SELECT 1 FROM achievement_grants ag WHERE ag.user_id = tm.user_id AND ag.achievement_definition_id = ?)", definitionID).
			Scan(ctx, &userIDs)
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *achievementRepository) InsertGrants(ctx context.Context, grants []*models.AchievementGrant) error {
	if len(grants) == 0 {
		return nil
	}

	now := time.Now()
	for _, g := range grants {
		if g.EarnedAt.IsZero() {
			g.EarnedAt = now
		}
	}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&grants).
			On("CONFLICT (user_id, achievement_definition_id) DO NOTHING").
			Exec(ctx)
		return err
	})
	return r.HandleError("insert_grants", "achievement grants", err)
}
