package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type GeneratedPageRepo interface {
	Create(dbc dbctx.Context, page *types.GeneratedPage) (*types.GeneratedPage, error)
	GetByPotentialPageID(dbc dbctx.Context, potentialPageID uuid.UUID) (*types.GeneratedPage, error)
	ListByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.GeneratedPage, error)
}

type generatedPageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedPageRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedPageRepo {
	return &generatedPageRepo{
		db:  db,
		log: baseLog.With("repo", "GeneratedPageRepo"),
	}
}

func (r *generatedPageRepo) Create(dbc dbctx.Context, page *types.GeneratedPage) (*types.GeneratedPage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(dbc.Ctx).Create(page).Error; err != nil {
		return nil, mapError(err)
	}
	return page, nil
}

func (r *generatedPageRepo) GetByPotentialPageID(dbc dbctx.Context, potentialPageID uuid.UUID) (*types.GeneratedPage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.GeneratedPage
	if err := transaction.WithContext(dbc.Ctx).
		Where("potential_page_id = ?", potentialPageID).
		First(&out).Error; err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *generatedPageRepo) ListByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.GeneratedPage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GeneratedPage
	if runID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
