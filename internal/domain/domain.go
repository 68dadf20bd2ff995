package domain

import "github.com/yungbote/pagecraft-backend/internal/domain/pages"

type Template = pages.Template
type PotentialPage = pages.PotentialPage
type GeneratedPage = pages.GeneratedPage
type GenerationRun = pages.GenerationRun

const (
	RunStatusQueued    = pages.RunStatusQueued
	RunStatusRunning   = pages.RunStatusRunning
	RunStatusSucceeded = pages.RunStatusSucceeded
	RunStatusPartial   = pages.RunStatusPartial
	RunStatusFailed    = pages.RunStatusFailed
	RunStatusCanceled  = pages.RunStatusCanceled
)
