package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-portal/internal/api/dto"
	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// AuthHandler serves the directory login and the OAuth code exchange.
type AuthHandler struct {
	static *auth.StaticAuthenticator
	oauth  *auth.OAuthExchanger
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(static *auth.StaticAuthenticator, oauth *auth.OAuthExchanger, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{static: static, oauth: oauth, tokens: tokens}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.static.Authenticate(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return h.session(c, user)
}

// OAuthURL GET /auth/oauth/url.
func (h *AuthHandler) OAuthURL(c *fiber.Ctx) error {
	if !h.oauth.Configured() {
		return apperrors.NewDomainError("OAUTH_DISABLED", "oauth login not configured", fiber.StatusNotImplemented, nil)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"url": h.oauth.AuthorizationURL()}})
}

// OAuthCallback POST /auth/oauth/callback.
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	if !h.oauth.Configured() {
		return apperrors.NewDomainError("OAUTH_DISABLED", "oauth login not configured", fiber.StatusNotImplemented, nil)
	}
	var req dto.OAuthCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.oauth.Exchange(c.UserContext(), req.Code)
	if err != nil {
		return err
	}
	return h.session(c, user)
}

func (h *AuthHandler) session(c *fiber.Ctx, user *domain.User) error {
	token, expiresAt, err := h.tokens.GenerateToken(*user)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Token:     token,
		ExpiresAt: expiresAt,
	}})
}
