package schedule

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type RuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rule *types.EventRule) (*types.EventRule, error)
	GetByID(ctx context.Context, tx *gorm.DB, ownerID string, id int64) (*types.EventRule, error)
	ListActiveInWindow(ctx context.Context, tx *gorm.DB, ownerID, from, to string) ([]types.EventRule, error)
	ListPage(ctx context.Context, tx *gorm.DB, afterID int64, limit int) ([]types.EventRule, error)
	Update(ctx context.Context, tx *gorm.DB, ownerID string, id int64, updates map[string]any) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, ownerID string, id int64) (int64, error)
}

type ruleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	repoLog := baseLog.With("repo", "RuleRepo")
	return &ruleRepo{db: db, log: repoLog}
}

func (r *ruleRepo) Create(ctx context.Context, tx *gorm.DB, rule *types.EventRule) (*types.EventRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// GetByID returns nil without error when the rule does not exist for owner.
func (r *ruleRepo) GetByID(ctx context.Context, tx *gorm.DB, ownerID string, id int64) (*types.EventRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rule types.EventRule
	err := transaction.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Take(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListActiveInWindow returns the owner's rules whose active range overlaps
// [from, to]. Dates compare as text.
func (r *ruleRepo) ListActiveInWindow(ctx context.Context, tx *gorm.DB, ownerID, from, to string) ([]types.EventRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.EventRule
	if err := transaction.WithContext(ctx).
		Where("owner_id = ? AND start_date <= ? AND end_date >= ?", ownerID, to, from).
		Order("day_index ASC, start_time ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListPage walks every owner's rules in id order.
func (r *ruleRepo) ListPage(ctx context.Context, tx *gorm.DB, afterID int64, limit int) ([]types.EventRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	var results []types.EventRule
	if err := transaction.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ruleRepo) Update(ctx context.Context, tx *gorm.DB, ownerID string, id int64, updates map[string]any) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.EventRule{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *ruleRepo) Delete(ctx context.Context, tx *gorm.DB, ownerID string, id int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&types.EventRule{})
	return res.RowsAffected, res.Error
}
