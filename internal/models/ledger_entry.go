package models

import "time"

type EntryKind string

const (
	EntryKindCheckin EntryKind = "checkin"
	EntryKindAdjust  EntryKind = "adjust"
)

// LedgerEntry is a journal row written together with every account change.
type LedgerEntry struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID string `gorm:"type:varchar(64);index" json:"user_id"`

	Kind         EntryKind `json:"kind"`
	Requested    int64     `json:"requested"`
	Applied      int64     `json:"applied"`
	BalanceAfter int64     `json:"balance_after"`
	OperatorID   string    `json:"operator_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
