package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type RuleChangeRepo interface {
	Append(ctx context.Context, tx *gorm.DB, ownerID string, ruleID int64, kind types.ChangeKind, payload any) error
	ListByRule(ctx context.Context, tx *gorm.DB, ownerID string, ruleID int64) ([]types.RuleChange, error)
}

type ruleChangeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleChangeRepo(db *gorm.DB, baseLog *logger.Logger) RuleChangeRepo {
	repoLog := baseLog.With("repo", "RuleChangeRepo")
	return &ruleChangeRepo{db: db, log: repoLog}
}

func (r *ruleChangeRepo) Append(ctx context.Context, tx *gorm.DB, ownerID string, ruleID int64, kind types.ChangeKind, payload any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	raw := []byte("{}")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode change payload: %w", err)
		}
		raw = b
	}
	return transaction.WithContext(ctx).Create(&types.RuleChange{
		RuleID:  ruleID,
		OwnerID: ownerID,
		Kind:    kind,
		Payload: datatypes.JSON(raw),
	}).Error
}

func (r *ruleChangeRepo) ListByRule(ctx context.Context, tx *gorm.DB, ownerID string, ruleID int64) ([]types.RuleChange, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.RuleChange
	if err := transaction.WithContext(ctx).
		Where("owner_id = ? AND rule_id = ?", ownerID, ruleID).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
