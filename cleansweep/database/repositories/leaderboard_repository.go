package repositories

import (
	"context"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/uptrace/bun"
)

type LeaderboardRepository interface {
	// GetUserStandings aggregates per-user participation for events on or
	// after since (nil means all-time).
	GetUserStandings(ctx context.Context, since *time.Time) ([]*models.EntityStanding, error)

	// GetTeamStandings aggregates participation of active-team members,
	// grouped by team.
	GetTeamStandings(ctx context.Context, since *time.Time) ([]*models.EntityStanding, error)

	// ReplaceAll swaps the entire cached result set in one transaction: the
	// old entries and the new ones are never visible together, and a failed
	// rebuild leaves the previous snapshot in place.
	ReplaceAll(ctx context.Context, entries []*models.LeaderboardEntry) error
}

type leaderboardRepository struct {
	*BaseRepository
}

func NewLeaderboardRepository(db *bun.DB) LeaderboardRepository {
	return &leaderboardRepository{BaseRepository: NewBaseRepository(db)}
}

// attendanceRow carries the distinct-event count per entity.
type attendanceRow struct {
	EntityID   int64 `bun:"entity_id"`
	EventCount int   `bun:"event_count"`
}

// contributionRow carries adjusted-preferred sums per entity.
type contributionRow struct {
	EntityID  int64   `bun:"entity_id"`
	Bags      int     `bun:"bags"`
	WeightLbs float64 `bun:"weight_lbs"`
	Minutes   int     `bun:"minutes"`
}

// Adjusted records aggregate their adjusted values; everything else uses the
// reported ones. Weight normalizes kg to lbs in SQL so every entity sums in
// one unit.
const (
	effectiveBagsExpr = `SUM(CASE WHEN cr.status = 'Adjusted'
		THEN COALESCE(cr.adjusted_bags, cr.bags_collected)
		ELSE cr.bags_collected END)`

	effectiveWeightLbsExpr = `SUM(
		(CASE WHEN cr.status = 'Adjusted'
			THEN COALESCE(cr.adjusted_weight, cr.weight_value)
			ELSE cr.weight_value END)
		* (CASE WHEN (CASE WHEN cr.status = 'Adjusted'
			THEN COALESCE(cr.adjusted_weight_unit, cr.weight_unit)
			ELSE cr.weight_unit END) = 'kg' THEN 2.20462 ELSE 1 END))`

	effectiveMinutesExpr = `SUM(CASE WHEN cr.status = 'Adjusted'
		THEN COALESCE(cr.adjusted_duration, cr.duration_minutes)
		ELSE cr.duration_minutes END)`
)

func (r *leaderboardRepository) GetUserStandings(ctx context.Context, since *time.Time) ([]*models.EntityStanding, error) {
	var attendance []attendanceRow
	err := r.SelectWithTimeout(ctx, "select", "user attendance", func(ctx context.Context) error {
		q := r.GetDB().NewSelect().
			TableExpr("event_attendees AS ea").
			Join("JOIN events AS e ON e.id = ea.event_id").
			ColumnExpr("ea.user_id AS entity_id").
			ColumnExpr("COUNT(DISTINCT e.id) AS event_count").
			Where("ea.canceled_at IS NULL").
			Where("e.is_canceled = false").
			GroupExpr("ea.user_id")
		if since != nil {
			q = q.Where("e.event_date >= ?", *since)
		}
		return q.Scan(ctx, &attendance)
	})
	if err != nil {
		return nil, err
	}

	var contributions []contributionRow
	err = r.SelectWithTimeout(ctx, "select", "user contributions", func(ctx context.Context) error {
		q := r.GetDB().NewSelect().
			TableExpr("contribution_records AS cr").
			Join("JOIN events AS e ON e.id = cr.event_id").
			ColumnExpr("cr.user_id AS entity_id").
			ColumnExpr(effectiveBagsExpr+" AS bags").
			ColumnExpr(effectiveWeightLbsExpr+" AS weight_lbs").
			ColumnExpr(effectiveMinutesExpr+" AS minutes").
			Where("cr.status IN (?)", bun.In([]string{models.ContributionStatusApproved, models.ContributionStatusAdjusted})).
			Where("e.is_canceled = false").
			GroupExpr("cr.user_id")
		if since != nil {
			q = q.Where("e.event_date >= ?", *since)
		}
		return q.Scan(ctx, &contributions)
	})
	if err != nil {
		return nil, err
	}

	var users []*models.User
	err = r.SelectWithTimeout(ctx, "select", "users", func(ctx context.Context) error {
		return r.GetDB().NewSelect().Model(&users).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	standings := make([]*models.EntityStanding, 0, len(attendance))
	byID := make(map[int64]*models.EntityStanding, len(attendance))
	for _, row := range attendance {
		s := &models.EntityStanding{EntityID: row.EntityID, EventCount: row.EventCount}
		byID[row.EntityID] = s
		standings = append(standings, s)
	}
	for _, row := range contributions {
		if s, ok := byID[row.EntityID]; ok {
			s.Bags = row.Bags
			s.WeightLbs = row.WeightLbs
			s.Minutes = row.Minutes
		}
	}
	for _, u := range users {
		if s, ok := byID[u.ID]; ok {
			s.Name = u.DisplayName
			s.Region = u.Region
			s.City = u.City
			s.OptedIn = u.ShowOnLeaderboards
		}
	}
	return standings, nil
}

func (r *leaderboardRepository) GetTeamStandings(ctx context.Context, since *time.Time) ([]*models.EntityStanding, error) {
	var attendance []attendanceRow
	err := r.SelectWithTimeout(ctx, "select", "team attendance", func(ctx context.Context) error {
		q := r.GetDB().NewSelect().
			TableExpr("event_attendees AS ea").
			Join("JOIN team_members AS tm ON tm.user_id = ea.user_id AND tm.left_at IS NULL").
			Join("JOIN teams AS t ON t.id = tm.team_id AND t.is_active = true").
			Join("JOIN events AS e ON e.id = ea.event_id").
			ColumnExpr("tm.team_id AS entity_id").
			ColumnExpr("COUNT(DISTINCT e.id) AS event_count").
			Where("ea.canceled_at IS NULL").
			Where("e.is_canceled = false").
			GroupExpr("tm.team_id")
		if since != nil {
			q = q.Where("e.event_date >= ?", *since)
		}
		return q.Scan(ctx, &attendance)
	})
	if err != nil {
		return nil, err
	}

	var contributions []contributionRow
	err = r.SelectWithTimeout(ctx, "select", "team contributions", func(ctx context.Context) error {
		q := r.GetDB().NewSelect().
			TableExpr("contribution_records AS cr").
			Join("JOIN team_members AS tm ON tm.user_id = cr.user_id AND tm.left_at IS NULL").
			Join("JOIN teams AS t ON t.id = tm.team_id AND t.is_active = true").
			Join("JOIN events AS e ON e.id = cr.event_id").
			ColumnExpr("tm.team_id AS entity_id").
			ColumnExpr(effectiveBagsExpr+" AS bags").
			ColumnExpr(effectiveWeightLbsExpr+" AS weight_lbs").
			ColumnExpr(effectiveMinutesExpr+" AS minutes").
			Where("cr.status IN (?)", bun.In([]string{models.ContributionStatusApproved, models.ContributionStatusAdjusted})).
			Where("e.is_canceled = false").
			GroupExpr("tm.team_id")
		if since != nil {
			q = q.Where("e.event_date >= ?", *since)
		}
		return q.Scan(ctx, &contributions)
	})
	if err != nil {
		return nil, err
	}

	var teams []*models.Team
	err = r.SelectWithTimeout(ctx, "select", "teams", func(ctx context.Context) error {
		return r.GetDB().NewSelect().Model(&teams).Where("is_active = true").Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	standings := make([]*models.EntityStanding, 0, len(attendance))
	byID := make(map[int64]*models.EntityStanding, len(attendance))
	for _, row := range attendance {
		s := &models.EntityStanding{EntityID: row.EntityID, EventCount: row.EventCount}
		byID[row.EntityID] = s
		standings = append(standings, s)
	}
	for _, row := range contributions {
		if s, ok := byID[row.EntityID]; ok {
			s.Bags = row.Bags
			s.WeightLbs = row.WeightLbs
			s.Minutes = row.Minutes
		}
	}
	for _, t := range teams {
		if s, ok := byID[t.ID]; ok {
			s.Name = t.Name
			s.Region = t.Region
			s.City = t.City
			s.OptedIn = true // active teams are always visible
		}
	}
	return standings, nil
}

func (r *leaderboardRepository) ReplaceAll(ctx context.Context, entries []*models.LeaderboardEntry) error {
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewTruncateTable().
			Model((*models.LeaderboardEntry)(nil)).
			Exec(ctx); err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&entries).Exec(ctx)
		return err
	})
	return r.HandleError("replace_all", "leaderboard entries", err)
}
