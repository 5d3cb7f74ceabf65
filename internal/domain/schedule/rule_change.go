package schedule

import (
	"time"

	"gorm.io/datatypes"
)

type ChangeKind string

const (
	ChangeCreate   ChangeKind = "create"
	ChangeRelocate ChangeKind = "relocate"
	ChangeEdit     ChangeKind = "edit"
	ChangeDelete   ChangeKind = "delete"
)

// RuleChange is an append-only record of a mutation, written in the same
// transaction as the mutation itself.
type RuleChange struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RuleID    int64          `gorm:"column:rule_id;not null;index" json:"rule_id"`
	OwnerID   string         `gorm:"column:owner_id;type:varchar(64);not null;index" json:"owner_id"`
	Kind      ChangeKind     `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (RuleChange) TableName() string { return "user_event_changes" }
