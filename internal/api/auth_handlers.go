package api

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/auth"
	"wordreminder/internal/logger"
	"wordreminder/internal/models"
	"wordreminder/internal/store"
)

const refreshCookie = "refresh_token"

func setRefreshCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   auth.CookieSecure,
		SameSite: "Lax",
		Path:     "/api/auth",
	})
}

// issueTokens signs an access token and a rotated refresh token, persists the
// latter and sets its cookie.
func issueTokens(c *fiber.Ctx, env *Env, user models.User, days int) (string, error) {
	accessToken, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to generate token")
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, user.Email, days)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to generate refresh token")
	}

	expiresAt := env.now().Add(time.Duration(days) * 24 * time.Hour)
	if err := env.Store.RefreshTokens.Store(c.UserContext(), user.ID, refreshToken, expiresAt, days); err != nil {
		logger.Error("failed to store refresh token", "user_id", user.ID, "error", err)
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to store refresh token")
	}
	setRefreshCookie(c, refreshToken, expiresAt)
	return accessToken, nil
}

func validateCredentials(email, password string) error {
	verr := &ValidationError{}
	if email == "" {
		verr.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Email is invalid")
	}
	if password == "" {
		verr.Add("password", "Password is required")
	}
	return verr.orNil()
}

func RegisterHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := validateCredentials(req.Email, req.Password); err != nil {
			return err
		}

		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to hash password")
		}

		user, err := env.Store.Users.Create(c.UserContext(), req.Email, hashedPassword)
		if errors.Is(err, store.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "Email already registered")
		}
		if err != nil {
			return err
		}

		accessToken, err := issueTokens(c, env, user, auth.RefreshDays(req.Remember))
		if err != nil {
			return err
		}
		logger.Info("user registered", "user_id", user.ID)

		return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
			Token: accessToken,
			User:  user,
		})
	}
}

func LoginHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		user, err := env.Store.Users.ByEmail(c.UserContext(), req.Email)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Database error")
		}

		if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		accessToken, err := issueTokens(c, env, user, auth.RefreshDays(req.Remember))
		if err != nil {
			return err
		}

		return c.JSON(models.AuthResponse{
			Token: accessToken,
			User:  user,
		})
	}
}

// RefreshTokenHandler generates a new access token from a valid refresh token cookie
func RefreshTokenHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refreshToken := c.Cookies(refreshCookie)
		if refreshToken == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Refresh token not found")
		}

		claims, err := auth.ValidateRefreshToken(refreshToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired refresh token")
		}

		ctx := c.UserContext()
		dbUserID, ttlDays, err := env.Store.RefreshTokens.Validate(ctx, refreshToken, env.now())
		if err != nil {
			logger.Warn("refresh token rejected", "user_id", claims.UserID, "error", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Refresh token not valid")
		}
		if dbUserID != claims.UserID {
			return fiber.NewError(fiber.StatusUnauthorized, "Token user mismatch")
		}

		user, err := env.Store.Users.ByID(ctx, claims.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Refresh token not valid")
		}

		accessToken, err := issueTokens(c, env, user, ttlDays)
		if err != nil {
			return err
		}
		if err := env.Store.RefreshTokens.Revoke(ctx, refreshToken); err != nil {
			logger.Warn("failed to revoke rotated refresh token", "user_id", user.ID, "error", err)
		}

		return c.JSON(fiber.Map{
			"token": accessToken,
		})
	}
}

// LogoutHandler clears the refresh token cookie
func LogoutHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if old := c.Cookies(refreshCookie); old != "" {
			_ = env.Store.RefreshTokens.Revoke(c.UserContext(), old)
		}
		setRefreshCookie(c, "", env.now().Add(-time.Hour))

		return c.JSON(fiber.Map{
			"message": "Logged out successfully",
		})
	}
}
