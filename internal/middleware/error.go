package middleware

import (
	"errors"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the uniform error envelope returned by every endpoint.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorHandler is the central Fiber error handler. Domain error codes map to
// HTTP statuses here; nothing else in the app sets error statuses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := string(domain.CodeInternal)
	message := "An internal error occurred"

	var dErr *domain.DomainError
	var vErr domain.ValidationError
	var vErrs domain.ValidationErrors
	var fErr *fiber.Error

	switch {
	case errors.As(err, &dErr):
		status = statusForCode(dErr.Code)
		code = string(dErr.Code)
		message = dErr.Message
	case errors.As(err, &vErr):
		status = fiber.StatusBadRequest
		code = string(vErr.Code)
		message = vErr.Message
	case errors.As(err, &vErrs):
		status = fiber.StatusBadRequest
		code = string(domain.CodeValidation)
		message = vErrs.Error()
	case errors.As(err, &fErr):
		status = fErr.Code
		code = string(domain.CodeInternal)
		if status < 500 {
			code = string(domain.CodeValidation)
		}
		message = fErr.Message
	}

	if status >= 500 {
		logger.Get().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		logger.Get().Debug("request rejected",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.String("code", code))
	}

	return c.Status(status).JSON(ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation, domain.CodeMissingField, domain.CodeInvalidFormat,
		domain.CodeOutOfRange, domain.CodeSessionTerminal, domain.CodeOutOfSequence,
		domain.CodeIncompleteSession:
		return fiber.StatusBadRequest
	case domain.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case domain.CodeNotFound, domain.CodeSessionNotFound, domain.CodeQuestionNotFound,
		domain.CodeResultNotFound:
		return fiber.StatusNotFound
	case domain.CodeConflict, domain.CodeDuplicateResponse:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
