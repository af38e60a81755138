package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/cleansweep/cleansweep-cron/cleansweep/database/repositories"
)

// criterionKind enumerates the recognized achievement predicate shapes.
type criterionKind int

const (
	criterionUnknown criterionKind = iota
	criterionEventsAttended
	criterionBagsCollected
	criterionEventsCreated
	criterionJoinedActiveTeam
)

// criterion is the parsed form of a definition's stored predicate. Shapes
// the evaluator does not recognize parse to criterionUnknown and are skipped
// rather than aborting the run.
type criterion struct {
	kind      criterionKind
	threshold int
}

func parseCriterion(def *models.AchievementDefinition) criterion {
	switch def.CriterionType {
	case models.CriterionEventsAttended:
		if def.Threshold > 0 {
			return criterion{kind: criterionEventsAttended, threshold: def.Threshold}
		}
	case models.CriterionBagsCollected:
		if def.Threshold > 0 {
			return criterion{kind: criterionBagsCollected, threshold: def.Threshold}
		}
	case models.CriterionEventsCreated:
		if def.Threshold > 0 {
			return criterion{kind: criterionEventsCreated, threshold: def.Threshold}
		}
	case models.CriterionJoinedActiveTeam:
		return criterion{kind: criterionJoinedActiveTeam}
	}
	return criterion{kind: criterionUnknown}
}

// AchievementJob grants each active achievement to every newly qualifying
// user. The already-granted exclusion in the qualifying selects makes a
// re-run over unchanged data a zero-grant no-op.
type AchievementJob struct {
	repo repositories.AchievementRepository
	now  func() time.Time
}

func NewAchievementJob(repo repositories.AchievementRepository) *AchievementJob {
	return &AchievementJob{repo: repo, now: time.Now}
}

func (j *AchievementJob) Name() string { return "achievement-evaluation" }

func (j *AchievementJob) Run(ctx context.Context) (int, error) {
	definitions, err := j.repo.GetActiveDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load achievement definitions: %w", err)
	}

	total := 0
	for _, def := range definitions {
		awarded, err := j.evaluate(ctx, def)
		if err != nil {
			// One broken definition must not stop the rest.
			slog.Error("Achievement evaluation failed",
				slog.String("type", "job"),
				slog.String("job", j.Name()),
				slog.String("achievement", def.Name),
				slog.Any("error", err))
			continue
		}
		total += awarded
	}

	slog.Info("Achievement evaluation completed",
		slog.String("type", "job"),
		slog.String("job", j.Name()),
		slog.Int("definitions", len(definitions)),
		slog.Int("granted", total))
	return total, nil
}

func (j *AchievementJob) evaluate(ctx context.Context, def *models.AchievementDefinition) (int, error) {
	crit := parseCriterion(def)

	var (
		userIDs []int64
		err     error
	)
	switch crit.kind {
	case criterionEventsAttended:
		userIDs, err = j.repo.UsersWithEventsAttended(ctx, crit.threshold, def.ID)
	case criterionBagsCollected:
		userIDs, err = j.repo.UsersWithBagsCollected(ctx, crit.threshold, def.ID)
	case criterionEventsCreated:
		userIDs, err = j.repo.UsersWithEventsCreated(ctx, crit.threshold, def.ID)
	case criterionJoinedActiveTeam:
		userIDs, err = j.repo.UsersOnActiveTeam(ctx, def.ID)
	default:
		slog.Warn("Skipping achievement with unrecognized criterion",
			slog.String("type", "job"),
			slog.String("job", j.Name()),
			slog.String("achievement", def.Name),
			slog.String("criterion", def.CriterionType),
			slog.Int("threshold", def.Threshold))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	earnedAt := j.now()
	grants := make([]*models.AchievementGrant, 0, len(userIDs))
	for _, userID := range userIDs {
		grants = append(grants, &models.AchievementGrant{
			UserID:                  userID,
			AchievementDefinitionID: def.ID,
			EarnedAt:                earnedAt,
			NotificationPending:     true,
		})
	}

	if err := j.repo.InsertGrants(ctx, grants); err != nil {
		return 0, err
	}

	slog.Info("Achievement granted",
		slog.String("type", "job"),
		slog.String("job", j.Name()),
		slog.String("achievement", def.Name),
		slog.Int("users", len(grants)))
	return len(grants), nil
}
