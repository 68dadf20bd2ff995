package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pagecraft-backend/internal/data/repos/pages"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type TemplateRepo = pages.TemplateRepo
type PotentialPageRepo = pages.PotentialPageRepo
type GeneratedPageRepo = pages.GeneratedPageRepo
type GenerationRunRepo = pages.GenerationRunRepo

var (
	ErrNotFound = pages.ErrNotFound
	ErrConflict = pages.ErrConflict
)

// Repos bundles every repository over one database handle.
type Repos struct {
	Templates      TemplateRepo
	PotentialPages PotentialPageRepo
	GeneratedPages GeneratedPageRepo
	Runs           GenerationRunRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Templates:      pages.NewTemplateRepo(db, log),
		PotentialPages: pages.NewPotentialPageRepo(db, log),
		GeneratedPages: pages.NewGeneratedPageRepo(db, log),
		Runs:           pages.NewGenerationRunRepo(db, log),
	}
}
