package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

const potentialPageBatchSize = 500

type PotentialPageRepo interface {
	// ReplaceForTemplate drops the template's ungenerated pages and stores
	// pages. Pages that were already generated are kept as they are.
	ReplaceForTemplate(dbc dbctx.Context, templateID uuid.UUID, pages []*types.PotentialPage) (int64, error)
	ListByTemplate(dbc dbctx.Context, templateID uuid.UUID, limit, offset int) ([]*types.PotentialPage, int64, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PotentialPage, error)
	MarkGenerated(dbc dbctx.Context, id uuid.UUID) error
}

type potentialPageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPotentialPageRepo(db *gorm.DB, baseLog *logger.Logger) PotentialPageRepo {
	return &potentialPageRepo{
		db:  db,
		log: baseLog.With("repo", "PotentialPageRepo"),
	}
}

func (r *potentialPageRepo) ReplaceForTemplate(dbc dbctx.Context, templateID uuid.UUID, pages []*types.PotentialPage) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var inserted int64
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("template_id = ? AND generated = ?", templateID, false).
			Delete(&types.PotentialPage{}).Error; err != nil {
			return err
		}
		if len(pages) == 0 {
			return nil
		}
		now := time.Now().UTC()
		for _, p := range pages {
			p.TemplateID = templateID
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			p.UpdatedAt = now
		}
		res := txx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).CreateInBatches(pages, potentialPageBatchSize)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	r.log.Debug("potential pages replaced", "template_id", templateID, "requested", len(pages), "inserted", inserted)
	return inserted, nil
}

func (r *potentialPageRepo) ListByTemplate(dbc dbctx.Context, templateID uuid.UUID, limit, offset int) ([]*types.PotentialPage, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.PotentialPage{}).
		Where("template_id = ?", templateID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.PotentialPage
	if err := q.Order("ordinal ASC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByIDs returns the pages found, in ordinal order.
func (r *potentialPageRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PotentialPage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PotentialPage
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Order("template_id ASC, ordinal ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *potentialPageRepo) MarkGenerated(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.PotentialPage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"generated":  true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
