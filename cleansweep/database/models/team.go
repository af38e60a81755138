package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Region    string    `bun:"region"`
	City      string    `bun:"city"`
	IsActive  bool      `bun:"is_active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type TeamMember struct {
	bun.BaseModel `bun:"table:team_members,alias:tm"`

	ID       int64      `bun:"id,pk,autoincrement"`
	TeamID   int64      `bun:"team_id,notnull"`
	UserID   int64      `bun:"user_id,notnull"`
	JoinedAt time.Time  `bun:"joined_at,notnull"`
	LeftAt   *time.Time `bun:"left_at"`
}
