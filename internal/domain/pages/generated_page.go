package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GeneratedPage is the synthesized content of a potential page.
type GeneratedPage struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PotentialPageID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"potential_page_id"`
	RunID             *uuid.UUID     `gorm:"type:uuid;index" json:"run_id,omitempty"`
	Content           string         `gorm:"column:content;not null" json:"content"`
	WordCount         int            `gorm:"column:word_count;not null;default:0" json:"word_count"`
	QualityScore      float64        `gorm:"column:quality_score;not null;default:0;index" json:"quality_score"`
	Flagged           bool           `gorm:"column:flagged;not null;default:false;index" json:"flagged"`
	VariationID       string         `gorm:"column:variation_id" json:"variation_id,omitempty"`
	VariationMetadata datatypes.JSON `gorm:"column:variation_metadata" json:"variation_metadata"`
	CreatedAt         time.Time      `gorm:"not null;index" json:"created_at"`
}

func (GeneratedPage) TableName() string { return "generated_page" }
