package repos

import (
	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/data/repos/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type RuleRepo = schedule.RuleRepo
type RuleChangeRepo = schedule.RuleChangeRepo

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	return schedule.NewRuleRepo(db, baseLog)
}
func NewRuleChangeRepo(db *gorm.DB, baseLog *logger.Logger) RuleChangeRepo {
	return schedule.NewRuleChangeRepo(db, baseLog)
}
