package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/pagecraft-backend/internal/domain"
)

func SeedTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB, pattern string, vars []string) *types.Template {
	tb.Helper()
	raw, _ := json.Marshal(vars)
	t := &types.Template{
		ID:            uuid.New(),
		Name:          "template",
		Pattern:       pattern,
		TitleTemplate: pattern,
		BodyTemplate:  "Find the best services for {Service} in {City}.",
		VariableNames: datatypes.JSON(raw),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return t
}

func SeedPotentialPage(tb testing.TB, ctx context.Context, tx *gorm.DB, templateID uuid.UUID, ordinal int, title, slug string, vars map[string]string) *types.PotentialPage {
	tb.Helper()
	raw, _ := json.Marshal(vars)
	p := &types.PotentialPage{
		ID:          uuid.New(),
		TemplateID:  templateID,
		Ordinal:     ordinal,
		IdentityKey: slug,
		Variables:   datatypes.JSON(raw),
		Title:       title,
		Slug:        slug,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed potential page: %v", err)
	}
	return p
}
