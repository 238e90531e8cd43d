package handlers

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"campus-cardhub/internal/config"
	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/core/services"
	"campus-cardhub/internal/pkg/password"
	"campus-cardhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService      *services.AuthService
	lifecycleService *services.LifecycleService
	cfg              *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, lifecycleService *services.LifecycleService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		lifecycleService: lifecycleService,
		cfg:              cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CardNumber  string `json:"card_number"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	CardNumber string `json:"card_number"`
	Password   string `json:"password"`
}

// ForgotPasswordRequest represents forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Register handles account registration
// @Summary Register new account
// @Tags Auth
// @Accept json
// @Produce json
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.FirstName == "" || req.LastName == "" {
		return response.BadRequest(c, "First and last name are required")
	}
	if req.CardNumber == "" {
		return response.BadRequest(c, "Card number is required")
	}
	if !password.Validate(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	role, err := domain.ParseRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if err != nil {
		return response.BadRequest(c, "Role must be one of ADMIN, STAFF, STUDENT")
	}

	var image []byte
	if req.ImageBase64 != "" {
		image, err = base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return response.BadRequest(c, "Invalid image payload")
		}
	}

	record, err := h.lifecycleService.CreateAccount(c.Context(), &services.CreateAccountInput{
		Email:      req.Email,
		Secret:     req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		CardNumber: req.CardNumber,
		Role:       role,
		Department: req.Department,
		Image:      image,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateCardNumber):
			return response.Conflict(c, "Card number already registered")
		case errors.Is(err, domain.ErrEmailAlreadyRegistered):
			return response.Conflict(c, "Email already registered")
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownRole):
			return response.BadRequest(c, "Invalid registration data")
		case errors.Is(err, domain.ErrCredentialCreationFailed):
			return response.InternalServerError(c, "Failed to create account")
		default:
			return response.InternalServerError(c, "Failed to create account")
		}
	}

	message := "Account created"
	if !record.IsApproved {
		message = "Account created, awaiting approval"
	}
	return response.Created(c, message, record.ToResponse())
}

// Login handles card holder login
// @Summary Login with card number and password
// @Tags Auth
// @Accept json
// @Produce json
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CardNumber == "" || req.Password == "" {
		return response.BadRequest(c, "Card number and password are required")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		CardNumber: strings.TrimSpace(req.CardNumber),
		Secret:     req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredential):
			return response.Unauthorized(c, "Invalid card number or password")
		case errors.Is(err, domain.ErrAccountNotUsable):
			return response.Forbidden(c, "Account is inactive or awaiting approval")
		default:
			return response.InternalServerError(c, "Login failed")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Login successful", result)
}

// Refresh handles access token refresh
// @Summary Refresh the access token
// @Tags Auth
// @Produce json
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token required")
	}

	result, err := h.authService.Refresh(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired),
			errors.Is(err, services.ErrTokenRevoked),
			errors.Is(err, services.ErrInvalidToken):
			return response.Unauthorized(c, "Session expired, please login again")
		case errors.Is(err, domain.ErrAccountNotUsable):
			return response.Forbidden(c, "Account is inactive or awaiting approval")
		default:
			return response.InternalServerError(c, "Failed to refresh session")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Session refreshed", result)
}

// Logout handles logout
// @Summary End the current session
// @Tags Auth
// @Produce json
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken != "" {
		if err := h.authService.Logout(c.Context(), refreshToken); err != nil {
			return response.InternalServerError(c, "Logout failed")
		}
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out", nil)
}

// LogoutAll revokes every refresh token of the current account
// @Summary End all sessions for the current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	recordID, ok := c.Locals("recordID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	record, err := h.authService.GetByID(c.Context(), recordID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err := h.authService.LogoutAll(c.Context(), record.IdentityToken); err != nil {
		return response.InternalServerError(c, "Logout failed")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "All sessions ended", nil)
}

// ForgotPassword queues a password reset email
// @Summary Request a password reset email
// @Tags Auth
// @Accept json
// @Produce json
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}

	// Same response whether or not the email is registered
	_ = h.authService.ForgotPassword(c.Context(), req.Email)
	return response.Success(c, "If the email is registered, a reset link has been sent", nil)
}

// Me returns the authenticated principal's record
// @Summary Get the current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	recordID, ok := c.Locals("recordID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	record, err := h.authService.GetByID(c.Context(), recordID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to load account")
	}
	return response.Success(c, "", record.ToResponse())
}

func (h *AuthHandler) extractRefreshToken(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	secure := h.cfg.IsProd()
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.AccessTokenMins) * time.Minute),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.RefreshTokenDays) * 24 * time.Hour),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: "access_token", Value: "", Expires: expired, HTTPOnly: true, Path: "/"})
	c.Cookie(&fiber.Cookie{Name: "refresh_token", Value: "", Expires: expired, HTTPOnly: true, Path: "/"})
}
