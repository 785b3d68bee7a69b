package service

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
	"github.com/suhendararyadi/lppm-iaipi-mhs/middleware"
)

const loginRoute = "/login"

var dashboardRoutes = map[string]string{
	model.RoleMahasiswa: "/dashboard/mahasiswa",
	model.RoleDPL:       "/dashboard/dpl",
	model.RoleLPPM:      "/dashboard/lppm",
}

// DashboardRoute maps a role to its landing page.
func DashboardRoute(role string) (string, bool) {
	route, ok := dashboardRoutes[strings.ToLower(role)]
	return route, ok
}

type AuthService struct {
	repo repo.UserRepository
}

func NewAuthService(repo repo.UserRepository) *AuthService {
	return &AuthService{repo: repo}
}

// /api/v1/auth/login
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := s.repo.FindByEmail(c.UserContext(), req.Email)
	if err != nil || !helper.CheckPasswordHash(req.Password, user.PasswordHash) {
		return fail(c, fiber.StatusUnauthorized, "Email atau password salah", nil)
	}

	route, ok := DashboardRoute(user.Role)
	if !ok {
		return fail(c, fiber.StatusForbidden, "Role pengguna tidak dikenali", nil)
	}

	token, err := helper.GenerateToken(*user)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat token", err)
	}
	refreshToken, err := helper.GenerateRefreshToken(*user)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat refresh token", err)
	}

	user.RefreshToken = refreshToken
	if err := s.repo.Update(c.UserContext(), user); err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal menyimpan refresh token")
	}

	return c.JSON(model.SuccessResponse[model.LoginResponse]{
		Success: true,
		Message: "Login berhasil",
		Data: model.LoginResponse{
			User: model.LoginUser{
				ID:       user.ID.String(),
				Email:    user.Email,
				FullName: user.FullName,
				NIM:      user.NIM,
				Role:     user.Role,
			},
			Token:        token,
			RefreshToken: refreshToken,
			Redirect:     route,
		},
	})
}

// /api/v1/auth/refresh
func (s *AuthService) Refresh(c *fiber.Ctx) error {
	var req model.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return fail(c, fiber.StatusBadRequest, "Refresh token wajib diisi", nil)
	}

	claims, err := helper.ValidateToken(req.RefreshToken)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Refresh token tidak valid", nil)
	}
	if claims.Type != helper.TokenRefresh {
		return fail(c, fiber.StatusUnauthorized, "Tipe token tidak valid", nil)
	}

	if blacklisted, err := s.repo.IsBlacklisted(c.UserContext(), req.RefreshToken); err == nil && blacklisted {
		return fail(c, fiber.StatusUnauthorized, "Token telah di blacklist", nil)
	}

	user, err := s.repo.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "User tidak ditemukan", nil)
	}
	if user.RefreshToken != req.RefreshToken {
		return fail(c, fiber.StatusUnauthorized, "Refresh token tidak valid", nil)
	}

	newToken, err := helper.GenerateToken(*user)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat token", err)
	}

	return c.JSON(model.SuccessResponse[model.RefreshTokenResponse]{
		Success: true,
		Message: "Token diperbarui",
		Data:    model.RefreshTokenResponse{Token: newToken},
	})
}

// /api/v1/auth/logout
func (s *AuthService) Logout(c *fiber.Ctx) error {
	tokenString, ok := middleware.BearerToken(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Token tidak ditemukan", nil)
	}

	claims, err := helper.ValidateToken(tokenString)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token tidak valid", nil)
	}

	if err := s.repo.AddBlacklistToken(c.UserContext(), model.BlacklistedToken{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		return failRepo(c, err, "Token tidak ditemukan", "Gagal logout")
	}

	var req model.RefreshTokenRequest
	if err := c.BodyParser(&req); err == nil && req.RefreshToken != "" {
		_ = s.repo.AddBlacklistToken(c.UserContext(), model.BlacklistedToken{
			Token:     req.RefreshToken,
			ExpiresAt: helper.TokenExpiry(req.RefreshToken),
		})
	}

	if err := s.repo.ClearRefreshToken(c.UserContext(), claims.UserID); err != nil {
		log.Printf("Failed to clear refresh token for user %s: %v", claims.UserID, err)
	}

	return c.JSON(model.SuccessMessageResponse{
		Success: true,
		Message: "Berhasil logout",
	})
}

// /api/v1/auth/profile
func (s *AuthService) Profile(c *fiber.Ctx) error {
	claims, ok := c.Locals("user").(*model.JWTClaims)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Sesi pengguna tidak valid", nil)
	}

	return c.JSON(model.SuccessResponse[model.ProfileData]{
		Success: true,
		Data: model.ProfileData{
			UserID:   claims.UserID.String(),
			Email:    claims.Email,
			FullName: claims.FullName,
			Role:     currentRole(c),
		},
	})
}

// /api/v1/auth/redirect
//
// Sends every session to its role dashboard. A session without a usable
// role is ended and pointed back at the login page.
func (s *AuthService) Redirect(c *fiber.Ctx) error {
	toLogin := func(message string) error {
		return c.Status(fiber.StatusUnauthorized).JSON(model.SuccessResponse[model.RedirectData]{
			Success: false,
			Message: message,
			Data:    model.RedirectData{Route: loginRoute},
		})
	}

	tokenString, ok := middleware.BearerToken(c)
	if !ok {
		return toLogin("Sesi tidak ditemukan")
	}
	claims, err := helper.ValidateToken(tokenString)
	if err != nil || claims.Type != helper.TokenAccess {
		return toLogin("Sesi tidak valid")
	}
	if blacklisted, err := s.repo.IsBlacklisted(c.UserContext(), tokenString); err == nil && blacklisted {
		return toLogin("Sesi telah berakhir")
	}

	route, ok := DashboardRoute(claims.Role)
	if !ok {
		if err := s.repo.AddBlacklistToken(c.UserContext(), model.BlacklistedToken{
			Token:     tokenString,
			ExpiresAt: claims.ExpiresAt.Time,
		}); err != nil {
			helper.ReportError("blacklist token role tidak dikenal", err)
		}
		if err := s.repo.ClearRefreshToken(c.UserContext(), claims.UserID); err != nil {
			log.Printf("Failed to clear refresh token for user %s: %v", claims.UserID, err)
		}
		return toLogin("Role tidak dikenali, silakan login kembali")
	}

	return c.JSON(model.SuccessResponse[model.RedirectData]{
		Success: true,
		Data:    model.RedirectData{Route: route},
	})
}
