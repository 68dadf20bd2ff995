package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pagecraft-backend/internal/http/response"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/combination"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

type PotentialPageHandler struct {
	pages services.PageService
}

func NewPotentialPageHandler(pages services.PageService) *PotentialPageHandler {
	return &PotentialPageHandler{pages: pages}
}

type generatePotentialPagesRequest struct {
	VariableValues  combination.ValueSets `json:"variable_values"`
	MaxCombinations int                   `json:"max_combinations"`
	DryRun          bool                  `json:"dry_run"`
}

// POST /api/templates/:id/potential-pages
func (h *PotentialPageHandler) Generate(c *gin.Context) {
	templateID, err := parseUUIDParam(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	var req generatePotentialPagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.pages.GeneratePotentialPages(c.Request.Context(), services.GeneratePotentialPagesInput{
		TemplateID:      templateID,
		ValueSets:       req.VariableValues,
		MaxCombinations: req.MaxCombinations,
		DryRun:          req.DryRun,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/templates/:id/potential-pages
func (h *PotentialPageHandler) List(c *gin.Context) {
	templateID, err := parseUUIDParam(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	limit, offset := pagination(c)
	rows, total, err := h.pages.ListPotentialPages(c.Request.Context(), templateID, limit, offset)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"pages":  rows,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
