package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(dbc dbctx.Context, tmpl *types.Template) (*types.Template, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Template, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Template, error)
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{
		db:  db,
		log: baseLog.With("repo", "TemplateRepo"),
	}
}

func (r *templateRepo) Create(dbc dbctx.Context, tmpl *types.Template) (*types.Template, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	now := time.Now().UTC()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now
	if err := transaction.WithContext(dbc.Ctx).Create(tmpl).Error; err != nil {
		return nil, mapError(err)
	}
	return tmpl, nil
}

func (r *templateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Template, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Template
	if err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *templateRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Template, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var out []*types.Template
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
