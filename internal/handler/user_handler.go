package handler

import (
	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
	"mindmetric/internal/middleware"
	"mindmetric/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the profile endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID, _ := middleware.CallerIdentity(c)
	profile, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// UpdateDemographics godoc
// @Summary Update the caller's demographics
// @Description Demographics only influence which norm group future results are placed against.
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UpdateDemographicsRequest true "Demographics"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /users/me/demographics [put]
func (h *UserHandler) UpdateDemographics(c *fiber.Ctx) error {
	var req dto.UpdateDemographicsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewValidationError("Invalid request body")
	}

	userID, _ := middleware.CallerIdentity(c)
	if err := h.userService.UpdateDemographics(c.Context(), userID, req); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Demographics updated"})
}
