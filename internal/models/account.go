package models

import (
	"fmt"
	"time"
)

type Account struct {
	UserID      string `gorm:"type:varchar(64);primaryKey"`
	Points      int64  `gorm:"not null;default:0"`
	LastCheckin *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (a *Account) String() string {
	lastCheckin := "never"
	if a.LastCheckin != nil {
		lastCheckin = a.LastCheckin.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("Account(%s, points=%d, last_checkin=%s)", a.UserID, a.Points, lastCheckin)
}
