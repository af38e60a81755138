package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAchievementRepo struct {
	definitions []*models.AchievementDefinition

	attended map[int64][]int64 // definition id -> qualifying users
	bags     map[int64][]int64
	created  map[int64][]int64
	onTeam   map[int64][]int64
	evalErr  map[int64]error

	granted []*models.AchievementGrant
}

func (f *fakeAchievementRepo) GetActiveDefinitions(_ context.Context) ([]*models.AchievementDefinition, error) {
	return f.definitions, nil
}

func (f *fakeAchievementRepo) check(defID int64, qualifying map[int64][]int64) ([]int64, error) {
	if err := f.evalErr[defID]; err != nil {
		return nil, err
	}
	var remaining []int64
	for _, userID := range qualifying[defID] {
		held := false
		for _, g := range f.granted {
			if g.UserID == userID && g.AchievementDefinitionID == defID {
				held = true
				break
			}
		}
		if !held {
			remaining = append(remaining, userID)
		}
	}
	return remaining, nil
}

func (f *fakeAchievementRepo) UsersWithEventsAttended(_ context.Context, _ int, defID int64) ([]int64, error) {
	return f.check(defID, f.attended)
}

func (f *fakeAchievementRepo) UsersWithBagsCollected(_ context.Context, _ int, defID int64) ([]int64, error) {
	return f.check(defID, f.bags)
}

func (f *fakeAchievementRepo) UsersWithEventsCreated(_ context.Context, _ int, defID int64) ([]int64, error) {
	return f.check(defID, f.created)
}

func (f *fakeAchievementRepo) UsersOnActiveTeam(_ context.Context, defID int64) ([]int64, error) {
	return f.check(defID, f.onTeam)
}

func (f *fakeAchievementRepo) InsertGrants(_ context.Context, grants []*models.AchievementGrant) error {
	f.granted = append(f.granted, grants...)
	return nil
}

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		name      string
		def       *models.AchievementDefinition
		wantKind  criterionKind
		threshold int
	}{
		{
			name:      "events attended",
			def:       &models.AchievementDefinition{CriterionType: models.CriterionEventsAttended, Threshold: 5},
			wantKind:  criterionEventsAttended,
			threshold: 5,
		},
		{
			name:      "bags collected",
			def:       &models.AchievementDefinition{CriterionType: models.CriterionBagsCollected, Threshold: 100},
			wantKind:  criterionBagsCollected,
			threshold: 100,
		},
		{
			name:      "events created",
			def:       &models.AchievementDefinition{CriterionType: models.CriterionEventsCreated, Threshold: 1},
			wantKind:  criterionEventsCreated,
			threshold: 1,
		},
		{
			name:     "joined active team needs no threshold",
			def:      &models.AchievementDefinition{CriterionType: models.CriterionJoinedActiveTeam},
			wantKind: criterionJoinedActiveTeam,
		},
		{
			name:     "unrecognized type",
			def:      &models.AchievementDefinition{CriterionType: "longest_streak", Threshold: 3},
			wantKind: criterionUnknown,
		},
		{
			name:     "missing threshold is malformed",
			def:      &models.AchievementDefinition{CriterionType: models.CriterionEventsAttended},
			wantKind: criterionUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCriterion(tt.def)
			assert.Equal(t, tt.wantKind, got.kind)
			assert.Equal(t, tt.threshold, got.threshold)
		})
	}
}

func TestAchievementRun(t *testing.T) {
	repo := &fakeAchievementRepo{
		definitions: []*models.AchievementDefinition{
			{ID: 1, Name: "Five Events", CriterionType: models.CriterionEventsAttended, Threshold: 5},
			{ID: 2, Name: "Team Player", CriterionType: models.CriterionJoinedActiveTeam},
		},
		attended: map[int64][]int64{1: {10, 11}},
		onTeam:   map[int64][]int64{2: {10}},
	}

	job := NewAchievementJob(repo)
	granted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, granted)

	for _, g := range repo.granted {
		assert.True(t, g.NotificationPending)
		assert.False(t, g.EarnedAt.IsZero())
	}
}

func TestAchievementRunIsIdempotent(t *testing.T) {
	repo := &fakeAchievementRepo{
		definitions: []*models.AchievementDefinition{
			{ID: 1, Name: "Five Events", CriterionType: models.CriterionEventsAttended, Threshold: 5},
		},
		attended: map[int64][]int64{1: {10}},
	}

	job := NewAchievementJob(repo)

	granted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, granted)

	// Same source data: the already-granted exclusion yields zero new grants.
	granted, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, granted)
	assert.Len(t, repo.granted, 1)
}

func TestAchievementRunSkipsUnknownCriterion(t *testing.T) {
	repo := &fakeAchievementRepo{
		definitions: []*models.AchievementDefinition{
			{ID: 1, Name: "Mystery", CriterionType: "retweets", Threshold: 9},
			{ID: 2, Name: "Team Player", CriterionType: models.CriterionJoinedActiveTeam},
		},
		onTeam: map[int64][]int64{2: {7}},
	}

	job := NewAchievementJob(repo)
	granted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, granted)
}

func TestAchievementRunIsolatesDefinitionFailures(t *testing.T) {
	repo := &fakeAchievementRepo{
		definitions: []*models.AchievementDefinition{
			{ID: 1, Name: "Broken", CriterionType: models.CriterionBagsCollected, Threshold: 10},
			{ID: 2, Name: "Team Player", CriterionType: models.CriterionJoinedActiveTeam},
		},
		evalErr: map[int64]error{1: errors.New("query timeout")},
		onTeam:  map[int64][]int64{2: {7}},
	}

	job := NewAchievementJob(repo)
	granted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, granted)
}
