package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pagecraft-backend/internal/data/repos"
	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/pattern"
	"github.com/yungbote/pagecraft-backend/internal/platform/apierr"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type CreateTemplateInput struct {
	Name      string   `json:"name"`
	Pattern   string   `json:"pattern"`
	Title     string   `json:"title"`
	Meta      string   `json:"meta"`
	Heading   string   `json:"heading"`
	Body      string   `json:"body"`
	Variables []string `json:"variables"`
}

func (in CreateTemplateInput) fields() pattern.TemplateFields {
	return pattern.TemplateFields{
		Pattern:   in.Pattern,
		Title:     in.Title,
		Meta:      in.Meta,
		Heading:   in.Heading,
		Body:      in.Body,
		Variables: in.Variables,
	}
}

type TemplateService interface {
	ParsePattern(raw string) ([]string, error)
	Validate(fields pattern.TemplateFields) pattern.Validation
	Create(ctx context.Context, in CreateTemplateInput) (*types.Template, pattern.Validation, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Template, error)
	List(ctx context.Context, limit, offset int) ([]*types.Template, error)
}

type templateService struct {
	log       *logger.Logger
	templates repos.TemplateRepo
}

func NewTemplateService(log *logger.Logger, templates repos.TemplateRepo) TemplateService {
	return &templateService{
		log:       log.With("service", "TemplateService"),
		templates: templates,
	}
}

func (s *templateService) ParsePattern(raw string) ([]string, error) {
	names, err := pattern.ExtractVariables(raw)
	if err != nil {
		return nil, apierr.BadRequest("invalid_pattern", err)
	}
	return names, nil
}

func (s *templateService) Validate(fields pattern.TemplateFields) pattern.Validation {
	return pattern.ValidateTemplate(fields)
}

func (s *templateService) Create(ctx context.Context, in CreateTemplateInput) (*types.Template, pattern.Validation, error) {
	v := pattern.ValidateTemplate(in.fields())
	if !v.IsValid {
		return nil, v, apierr.Unprocessable("invalid_template", errors.New(strings.Join(v.Errors, "; ")))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.Pattern
	}
	vars, _ := json.Marshal(v.Variables)
	tmpl := &types.Template{
		Name:            name,
		Pattern:         in.Pattern,
		TitleTemplate:   in.Title,
		MetaTemplate:    in.Meta,
		HeadingTemplate: in.Heading,
		BodyTemplate:    in.Body,
		VariableNames:   datatypes.JSON(vars),
	}
	created, err := s.templates.Create(dbctx.Of(ctx), tmpl)
	if err != nil {
		return nil, v, apierr.Internal(fmt.Errorf("create template: %w", err))
	}
	s.log.Info("template created", "template_id", created.ID, "variables", len(v.Variables), "warnings", len(v.Warnings))
	return created, v, nil
}

func (s *templateService) Get(ctx context.Context, id uuid.UUID) (*types.Template, error) {
	tmpl, err := s.templates.GetByID(dbctx.Of(ctx), id)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, apierr.NotFound("template_not_found", fmt.Errorf("template %s not found", id))
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return tmpl, nil
}

func (s *templateService) List(ctx context.Context, limit, offset int) ([]*types.Template, error) {
	out, err := s.templates.List(dbctx.Of(ctx), limit, offset)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}
