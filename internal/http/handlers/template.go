package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pagecraft-backend/internal/http/response"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/pattern"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

type TemplateHandler struct {
	templates services.TemplateService
}

func NewTemplateHandler(templates services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// POST /api/patterns/parse
func (h *TemplateHandler) ParsePattern(c *gin.Context) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	vars, err := h.templates.ParsePattern(req.Pattern)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

// POST /api/templates/validate
func (h *TemplateHandler) Validate(c *gin.Context) {
	var req pattern.TemplateFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.templates.Validate(req))
}

// POST /api/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req services.CreateTemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tmpl, v, err := h.templates.Create(c.Request.Context(), req)
	if err != nil {
		if !v.IsValid && len(v.Errors) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      response.APIError{Message: err.Error(), Code: "invalid_template"},
				"validation": v,
			})
			return
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"template": tmpl, "validation": v})
}

// GET /api/templates
func (h *TemplateHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	out, err := h.templates.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": out, "limit": limit, "offset": offset})
}

// GET /api/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	tmpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": tmpl})
}
