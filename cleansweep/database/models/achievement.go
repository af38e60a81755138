package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AchievementDefinition struct {
	bun.BaseModel `bun:"table:achievement_definitions,alias:ad"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	IsActive      bool      `bun:"is_active,notnull,default:true"`
	CriterionType string    `bun:"criterion_type,notnull"`
	Threshold     int       `bun:"threshold,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

// Criterion type constants
const (
	CriterionEventsAttended   = "events_attended"
	CriterionBagsCollected    = "bags_collected"
	CriterionEventsCreated    = "events_created"
	CriterionJoinedActiveTeam = "joined_active_team"
)

type AchievementGrant struct {
	bun.BaseModel `bun:"table:achievement_grants,alias:ag"`

	ID                      int64     `bun:"id,pk,autoincrement"`
	UserID                  int64     `bun:"user_id,notnull"`
	AchievementDefinitionID int64     `bun:"achievement_definition_id,notnull"`
	EarnedAt                time.Time `bun:"earned_at,notnull"`
	NotificationPending     bool      `bun:"notification_pending,notnull,default:true"`
}
