package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	bearer := strings.TrimSpace(c.Get("Authorization"))
	if len(bearer) < 7 || !strings.EqualFold(bearer[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(bearer[7:])
	return token, token != ""
}

func AuthRequired(users repo.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.TrimSpace(c.Get("Authorization")) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Token tidak ditemukan",
			})
		}

		token, ok := BearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Format (Bearer) token tidak valid",
			})
		}

		claims, err := helper.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Token tidak valid",
			})
		}

		if claims.Type != helper.TokenAccess {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Tipe token tidak valid",
			})
		}

		blacklisted, err := users.IsBlacklisted(c.UserContext(), token)
		if err == nil && blacklisted {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Token telah di blacklist",
			})
		}

		if claims.UserID == uuid.Nil || claims.Email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Claim token tidak lengkap",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("role", strings.ToLower(claims.Role))
		c.Locals("token", token)
		c.Locals("user", claims)

		return c.Next()
	}
}

// RoleRequired lets the request through when the session role is one of roles.
func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{
				Success: false,
				Message: "Claim user tidak ditemukan",
			})
		}

		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(model.ErrorResponse{
			Success: false,
			Message: "Akses dilarang",
		})
	}
}
