package middleware

import (
	"strings"

	"mindmetric/internal/domain"
	"mindmetric/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middlewares.
const (
	UserIDKey    = "user_id"
	AnonTokenKey = "anon_token"
)

// AnonTokenHeader carries the opaque token owning an anonymous session.
const AnonTokenHeader = "X-Anonymous-Token"

// Protected rejects requests without a valid access token.
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return domain.NewAuthorizationError("Missing access token")
		}
		claims, err := authService.ValidateAccessToken(token)
		if err != nil {
			return err
		}
		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a token is present but
// lets anonymous requests through, capturing their session token header.
func OptionalAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			claims, err := authService.ValidateAccessToken(token)
			if err != nil {
				return err
			}
			c.Locals(UserIDKey, claims.UserID)
		}
		if anonToken := c.Get(AnonTokenHeader); anonToken != "" {
			c.Locals(AnonTokenKey, anonToken)
		}
		return c.Next()
	}
}

// CallerIdentity reads the identity set by the auth middlewares.
func CallerIdentity(c *fiber.Ctx) (userID, anonToken string) {
	if v, ok := c.Locals(UserIDKey).(string); ok {
		userID = v
	}
	if v, ok := c.Locals(AnonTokenKey).(string); ok {
		anonToken = v
	}
	return userID, anonToken
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
