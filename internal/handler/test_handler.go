package handler

import (
	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
	"mindmetric/internal/middleware"
	"mindmetric/internal/service"
	"mindmetric/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// TestHandler serves the test-session endpoints.
type TestHandler struct {
	sessionService  service.SessionService
	responseService service.ResponseService
}

// NewTestHandler creates a new TestHandler
func NewTestHandler(sessionService service.SessionService, responseService service.ResponseService) *TestHandler {
	return &TestHandler{
		sessionService:  sessionService,
		responseService: responseService,
	}
}

// StartTest godoc
// @Summary Start a test session
// @Description Creates a session for the requested preset and returns the first question. Anonymous callers receive a session token to present on subsequent calls.
// @Tags test
// @Accept json
// @Produce json
// @Param request body dto.StartTestRequest true "Test parameters"
// @Success 201 {object} dto.StartTestResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /test/start [post]
func (h *TestHandler) StartTest(c *fiber.Ctx) error {
	var req dto.StartTestRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("Invalid request body")
	}

	userID, _ := middleware.CallerIdentity(c)
	resp, err := h.sessionService.StartTest(c.Context(), req, userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetCurrentQuestion godoc
// @Summary Get the current question
// @Tags test
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} dto.CurrentQuestionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /test/{sessionId}/question [get]
func (h *TestHandler) GetCurrentQuestion(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if err := validation.ValidateULID("session_id", sessionID); err != nil {
		return err
	}

	userID, anonToken := middleware.CallerIdentity(c)
	resp, err := h.sessionService.GetCurrentQuestion(c.Context(), sessionID, userID, anonToken)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitResponse godoc
// @Summary Submit an answer
// @Description Grades and records the answer for the session's current question. Submitting out of sequence or twice for the same question is rejected.
// @Tags test
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body dto.SubmitResponseRequest true "Answer payload"
// @Success 200 {object} dto.SubmitResponseResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /test/{sessionId}/response [post]
func (h *TestHandler) SubmitResponse(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if err := validation.ValidateULID("session_id", sessionID); err != nil {
		return err
	}

	var req dto.SubmitResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("Invalid request body")
	}

	userID, anonToken := middleware.CallerIdentity(c)
	resp, err := h.responseService.Submit(c.Context(), sessionID, req, userID, anonToken)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetStatus godoc
// @Summary Get session status
// @Tags test
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} dto.SessionStatusResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /test/{sessionId}/status [get]
func (h *TestHandler) GetStatus(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if err := validation.ValidateULID("session_id", sessionID); err != nil {
		return err
	}

	userID, anonToken := middleware.CallerIdentity(c)
	resp, err := h.sessionService.GetStatus(c.Context(), sessionID, userID, anonToken)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// AbandonTest godoc
// @Summary Abandon a session
// @Description Moves the session to the Abandoned terminal status. Abandoning an already terminal session succeeds without effect.
// @Tags test
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /test/{sessionId}/abandon [post]
func (h *TestHandler) AbandonTest(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if err := validation.ValidateULID("session_id", sessionID); err != nil {
		return err
	}

	userID, anonToken := middleware.CallerIdentity(c)
	if err := h.sessionService.Abandon(c.Context(), sessionID, userID, anonToken); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Session abandoned"})
}
