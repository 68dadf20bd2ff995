package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pagecraft-backend/internal/http/response"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

type ContentHandler struct {
	content services.ContentService
}

func NewContentHandler(content services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// POST /api/rotation/select
func (h *ContentHandler) Select(c *gin.Context) {
	var req services.SelectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sel, err := h.content.Select(req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"selection": sel})
}

// POST /api/rotation/performance
func (h *ContentHandler) RecordPerformance(c *gin.Context) {
	var req services.PerformanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.content.RecordPerformance(req); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/rotation/report
func (h *ContentHandler) RotationReport(c *gin.Context) {
	response.RespondOK(c, h.content.RotationReport())
}

// POST /api/variations
func (h *ContentHandler) Vary(c *gin.Context) {
	var req services.VaryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.content.Vary(req))
}

// POST /api/variations/patterns
func (h *ContentHandler) DetectPatterns(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.content.DetectPatterns(req.Content))
}

// GET /api/variations/stats
func (h *ContentHandler) VariationStats(c *gin.Context) {
	response.RespondOK(c, h.content.VariationStats())
}

// POST /api/quality/score
func (h *ContentHandler) Score(c *gin.Context) {
	var req services.ScoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.content.Score(req))
}
