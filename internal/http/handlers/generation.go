package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pagecraft-backend/internal/http/response"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

type GenerationHandler struct {
	generation services.GenerationService
}

func NewGenerationHandler(generation services.GenerationService) *GenerationHandler {
	return &GenerationHandler{generation: generation}
}

type startRunRequest struct {
	services.GenerateInput
	// Wait runs the batch inside the request and returns per-page outcomes.
	Wait bool `json:"wait"`
}

// POST /api/generation-runs
func (h *GenerationHandler) Start(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Wait {
		run, out, err := h.generation.GenerateSelected(c.Request.Context(), req.GenerateInput)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondOK(c, gin.H{"run": run, "pages": out.Pages})
		return
	}
	run, err := h.generation.Start(c.Request.Context(), req.GenerateInput)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"run": run})
}

// GET /api/generation-runs/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.generation.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

// POST /api/generation-runs/:id/cancel
func (h *GenerationHandler) Cancel(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.generation.Cancel(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}
