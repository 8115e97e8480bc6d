package handler

import (
	"mindmetric/internal/dto"
	"mindmetric/internal/middleware"
	"mindmetric/internal/service"
	"mindmetric/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ResultHandler serves the score-report endpoints.
type ResultHandler struct {
	resultService service.ResultService
}

// NewResultHandler creates a new ResultHandler
func NewResultHandler(resultService service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// GetSessionResult godoc
// @Summary Get the result of a completed session
// @Tags results
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} dto.SessionResultResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /results/session/{sessionId} [get]
func (h *ResultHandler) GetSessionResult(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if err := validation.ValidateULID("session_id", sessionID); err != nil {
		return err
	}

	userID, anonToken := middleware.CallerIdentity(c)
	resp, err := h.resultService.GetSessionResult(c.Context(), sessionID, userID, anonToken)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetHistory godoc
// @Summary List the caller's completed tests
// @Tags results
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.HistoryResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /results/history [get]
func (h *ResultHandler) GetHistory(c *fiber.Ctx) error {
	userID, _ := middleware.CallerIdentity(c)

	p := dto.Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	}
	resp, err := h.resultService.GetHistory(c.Context(), userID, p)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
