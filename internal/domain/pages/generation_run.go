package pages

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
	RunStatusCanceled  = "canceled"
)

// GenerationRun tracks one batch of page syntheses.
type GenerationRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Strategy   string         `gorm:"column:strategy;not null" json:"strategy"`
	BatchSize  int            `gorm:"column:batch_size;not null" json:"batch_size"`
	Requested  int            `gorm:"column:requested;not null;default:0" json:"requested"`
	Succeeded  int            `gorm:"column:succeeded;not null;default:0" json:"succeeded"`
	Failed     int            `gorm:"column:failed;not null;default:0" json:"failed"`
	Skipped    int            `gorm:"column:skipped;not null;default:0" json:"skipped"`
	Errors     datatypes.JSON `gorm:"column:errors" json:"errors"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (GenerationRun) TableName() string { return "generation_run" }

// Terminal reports whether the run can no longer change.
func (r *GenerationRun) Terminal() bool {
	switch r.Status {
	case RunStatusSucceeded, RunStatusPartial, RunStatusFailed, RunStatusCanceled:
		return true
	}
	return false
}
