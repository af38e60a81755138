package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	DisplayName        string    `bun:"display_name,notnull"`
	Region             string    `bun:"region"`
	City               string    `bun:"city"`
	ShowOnLeaderboards bool      `bun:"show_on_leaderboards,notnull,default:true"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
	UpdatedAt          time.Time `bun:"updated_at,notnull"`
}
