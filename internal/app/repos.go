package app

import (
	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/data/repos"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Repos struct {
	Rule       repos.RuleRepo
	RuleChange repos.RuleChangeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Rule:       repos.NewRuleRepo(db, log),
		RuleChange: repos.NewRuleChangeRepo(db, log),
	}
}
