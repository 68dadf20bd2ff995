package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is a pattern plus the content sections that pages are built from.
type Template struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"column:name;not null;index" json:"name"`
	Pattern         string         `gorm:"column:pattern;not null" json:"pattern"`
	TitleTemplate   string         `gorm:"column:title_template" json:"title_template,omitempty"`
	MetaTemplate    string         `gorm:"column:meta_template" json:"meta_template,omitempty"`
	HeadingTemplate string         `gorm:"column:heading_template" json:"heading_template,omitempty"`
	BodyTemplate    string         `gorm:"column:body_template" json:"body_template,omitempty"`
	VariableNames   datatypes.JSON `gorm:"column:variable_names" json:"variable_names"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Template) TableName() string { return "page_template" }
