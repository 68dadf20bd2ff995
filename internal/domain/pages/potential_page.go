package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PotentialPage is one resolved variable assignment of a template.
type PotentialPage struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_potential_page_identity;uniqueIndex:idx_potential_page_slug;index:idx_potential_page_ordinal,priority:1" json:"template_id"`
	Ordinal     int            `gorm:"column:ordinal;not null;index:idx_potential_page_ordinal,priority:2" json:"ordinal"`
	IdentityKey string         `gorm:"column:identity_key;not null;uniqueIndex:idx_potential_page_identity" json:"identity_key"`
	Variables   datatypes.JSON `gorm:"column:variables" json:"variables"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex:idx_potential_page_slug" json:"slug"`
	Generated   bool           `gorm:"column:generated;not null;default:false;index" json:"generated"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (PotentialPage) TableName() string { return "potential_page" }
