package http

import (
	"emr-metadata-dashboard/internal/auth/config"
	"emr-metadata-dashboard/internal/auth/usecase"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	config  *config.Config
	log     logger.Logger
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cfg *config.Config, log logger.Logger) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase: uc,
		config:  cfg,
		log:     log.WithComponent("auth_http"),
	}
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	router.Post("/login", middleware.RateLimiter(), h.Login)
	router.Post("/register", middleware.OptionalAuth(), h.Register)
	router.Post("/refresh", h.RefreshToken)

	protected := router.Group("", middleware.Protect())
	protected.Get("/me", h.GetCurrentUser)
	protected.Post("/logout", h.Logout)
	protected.Post("/reset-password", h.ResetPassword)
}

// Register creates an account. The caller must be an admin unless no
// account exists yet.
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.usecase.Register(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login accepts the OAuth2 password form and sets the auth cookie.
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	response, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}

	setAuthCookie(c, h.config, response.AccessToken)
	return c.JSON(response)
}

// Logout revokes the presented token and clears the cookie.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	token, err := h.presentedToken(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.usecase.Logout(c.UserContext(), token); err != nil {
		return h.respondError(c, err)
	}

	clearAuthCookie(c, h.config)
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// RefreshToken exchanges the presented token for a fresh one.
func (h *AuthHTTPHandler) RefreshToken(c *fiber.Ctx) error {
	token, err := h.presentedToken(c)
	if err != nil {
		clearAuthCookie(c, h.config)
		return h.respondError(c, err)
	}

	response, err := h.usecase.RefreshToken(c.UserContext(), token)
	if err != nil {
		if errors.IsAuthentication(err) {
			clearAuthCookie(c, h.config)
		}
		return h.respondError(c, err)
	}

	setAuthCookie(c, h.config, response.AccessToken)
	return c.JSON(response)
}

// GetCurrentUser returns current user information
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return h.respondError(c, errors.NewAuthenticationError("Unauthorized").WithCause(err))
	}

	user, err := h.usecase.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(user)
}

// ResetPassword changes the caller's password.
func (h *AuthHTTPHandler) ResetPassword(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return h.respondError(c, errors.NewAuthenticationError("Unauthorized").WithCause(err))
	}

	var req usecase.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.usecase.ResetPassword(c.UserContext(), userID, req); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}

func (h *AuthHTTPHandler) presentedToken(c *fiber.Ctx) (string, error) {
	m := AuthMiddleware{config: h.config}
	token, err := m.extractToken(c)
	if err != nil {
		return "", errors.NewAuthenticationError("Authentication required").WithCause(err)
	}
	return token, nil
}

// respondError replies {"error": code, "message": text}. Only the top level
// message of an AppError is exposed.
func (h *AuthHTTPHandler) respondError(c *fiber.Ctx, err error) error {
	status, code := errors.HTTPStatus(err)
	message := errors.PublicMessage(err)
	if status >= fiber.StatusInternalServerError {
		h.log.WithContext(c.UserContext()).Error("auth request failed",
			zap.String("path", c.Path()),
			zap.Error(err))
		message = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "invalid_body",
		"message": "Invalid request body",
	})
}
