package middleware

import (
	"strings"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth
const (
	LocalUserID    = "user_id"
	LocalUserName  = "user_name"
	LocalUserEmail = "user_email"
	LocalUserRole  = "user_role"
)

// RequireAuth validates the bearer token against the user's current session
// and stores the user in the request locals. Websocket clients cannot set
// headers, so a "token" query parameter is accepted as well.
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")

		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		session, err := authService.ValidateToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(LocalUserID, session.User.ID.String())
		c.Locals(LocalUserEmail, session.User.Email)
		c.Locals(LocalUserName, session.User.Name)
		c.Locals(LocalUserRole, session.Role)

		return c.Next()
	}
}

// RequirePermission checks the authenticated user's role grants the permission
func RequirePermission(required model.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalUserRole).(model.Role)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No role found"})
		}
		if !role.Can(required) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(required) + "' permission",
			})
		}
		return c.Next()
	}
}

// RequireAnyPermission passes when the role grants at least one of the permissions
func RequireAnyPermission(required ...model.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalUserRole).(model.Role)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No role found"})
		}

		names := make([]string, len(required))
		for i, p := range required {
			if role.Can(p) {
				return c.Next()
			}
			names[i] = string(p)
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " permissions",
		})
	}
}
