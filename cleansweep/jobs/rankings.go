package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep/config"
	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/cleansweep/cleansweep-cron/cleansweep/database/repositories"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// SnapshotArchiver receives the freshly computed result set after a
// successful rebuild. Implementations must not mutate the entries.
type SnapshotArchiver interface {
	ArchiveLeaderboard(ctx context.Context, computedAt time.Time, entries []*models.LeaderboardEntry) error
}

// RankingJob rebuilds the entire leaderboard cache: every metric type, time
// window, location scope and entity kind, replaced wholesale in one swap.
type RankingJob struct {
	repo     repositories.LeaderboardRepository
	archiver SnapshotArchiver // nil disables archiving
	now      func() time.Time
}

func NewRankingJob(repo repositories.LeaderboardRepository, archiver SnapshotArchiver) *RankingJob {
	return &RankingJob{repo: repo, archiver: archiver, now: time.Now}
}

func (j *RankingJob) Name() string { return "leaderboard-rankings" }

// standingSet keys loaded aggregates by entity kind and time window.
type standingSet map[string]map[string][]*models.EntityStanding

func (j *RankingJob) Run(ctx context.Context) (int, error) {
	start := j.now()

	standings, err := j.loadStandings(ctx, start)
	if err != nil {
		return 0, err
	}

	entries := buildLeaderboard(standings, start)

	if err := j.repo.ReplaceAll(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to swap leaderboard entries: %w", err)
	}

	slog.Info("Leaderboard rebuilt",
		slog.String("type", "job"),
		slog.String("job", j.Name()),
		slog.Int("entries", len(entries)),
		slog.Duration("took", time.Since(start)))

	if j.archiver != nil {
		if err := j.archiver.ArchiveLeaderboard(ctx, start, entries); err != nil {
			// Archiving is best-effort: the cache swap already committed.
			slog.Warn("Leaderboard snapshot archive failed",
				slog.String("type", "job"),
				slog.String("job", j.Name()),
				slog.Any("error", err))
		}
	}

	return len(entries), nil
}

// loadStandings issues the eight (entity kind x time window) aggregate loads
// with bounded concurrency. Reads run in parallel; the write stays in one
// transaction.
func (j *RankingJob) loadStandings(ctx context.Context, now time.Time) (standingSet, error) {
	standings := standingSet{
		models.EntityKindUser: make(map[string][]*models.EntityStanding),
		models.EntityKindTeam: make(map[string][]*models.EntityStanding),
	}

	var mu sync.Mutex
	sem := semaphore.NewWeighted(config.MaxConcurrentAggregates)
	g, gctx := errgroup.WithContext(ctx)

	for _, kind := range []string{models.EntityKindUser, models.EntityKindTeam} {
		for _, window := range models.TimeWindows {
			kind, window := kind, window
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)

				since := models.WindowStart(window, now)
				var (
					rows []*models.EntityStanding
					err  error
				)
				if kind == models.EntityKindUser {
					rows, err = j.repo.GetUserStandings(gctx, since)
				} else {
					rows, err = j.repo.GetTeamStandings(gctx, since)
				}
				if err != nil {
					return fmt.Errorf("failed to load %s standings for %s: %w", kind, window, err)
				}
				mu.Lock()
				standings[kind][window] = rows
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return standings, nil
}

// buildLeaderboard computes every (metric x window x kind) combination from
// the loaded standings.
func buildLeaderboard(standings standingSet, computedAt time.Time) []*models.LeaderboardEntry {
	var entries []*models.LeaderboardEntry
	for _, kind := range []string{models.EntityKindUser, models.EntityKindTeam} {
		for _, window := range models.TimeWindows {
			for _, metric := range models.MetricTypes {
				ranked := rankStandings(standings[kind][window], metric)
				entries = append(entries, materializeEntries(kind, metric, window, ranked, computedAt)...)
			}
		}
	}
	return entries
}

// rankedStanding pairs a standing with its score and assigned rank.
type rankedStanding struct {
	*models.EntityStanding
	Score float64
	Rank  int
}

// metricScore derives one metric's score from an entity's aggregates.
func metricScore(metric string, s *models.EntityStanding) float64 {
	switch metric {
	case models.MetricTypeEvents:
		return float64(s.EventCount)
	case models.MetricTypeBags:
		return float64(s.Bags)
	case models.MetricTypeWeight:
		return s.WeightLbs
	case models.MetricTypeHours:
		return float64(s.Minutes) / 60
	}
	return 0
}

// rankStandings filters to eligible entities, orders them, and assigns a
// dense 1..N rank. Ordering is score descending, qualifying-event count
// descending, then entity id ascending so ties never share a rank.
func rankStandings(standings []*models.EntityStanding, metric string) []rankedStanding {
	eligible := make([]rankedStanding, 0, len(standings))
	for _, s := range standings {
		if !s.OptedIn || s.EventCount < config.MinQualifyingEvents {
			continue
		}
		score := metricScore(metric, s)
		if score <= 0 {
			continue
		}
		eligible = append(eligible, rankedStanding{EntityStanding: s, Score: score})
	}

	sort.Slice(eligible, func(i, k int) bool {
		if eligible[i].Score != eligible[k].Score {
			return eligible[i].Score > eligible[k].Score
		}
		if eligible[i].EventCount != eligible[k].EventCount {
			return eligible[i].EventCount > eligible[k].EventCount
		}
		return eligible[i].EntityID < eligible[k].EntityID
	})

	for i := range eligible {
		eligible[i].Rank = i + 1
	}
	return eligible
}

// materializeEntries emits the Global entry for every ranked entity plus
// Region and City entries when those fields are set. Regional and city rows
// reuse the globally computed rank; recomputing a scope-local rank is an
// open product question, so the historical behavior stands.
func materializeEntries(kind, metric, window string, ranked []rankedStanding, computedAt time.Time) []*models.LeaderboardEntry {
	entries := make([]*models.LeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		base := models.LeaderboardEntry{
			EntityKind: kind,
			EntityID:   r.EntityID,
			EntityName: r.Name,
			MetricType: metric,
			TimeWindow: window,
			Score:      r.Score,
			Rank:       r.Rank,
			ComputedAt: computedAt,
		}

		global := base
		global.LocationScope = models.LocationScopeGlobal
		entries = append(entries, &global)

		if r.Region != "" {
			region := base
			region.LocationScope = models.LocationScopeRegion
			value := r.Region
			region.LocationValue = &value
			entries = append(entries, &region)
		}
		if r.City != "" {
			city := base
			city.LocationScope = models.LocationScopeCity
			value := r.City
			city.LocationValue = &value
			entries = append(entries, &city)
		}
	}
	return entries
}
