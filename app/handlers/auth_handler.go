package handlers

import (
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Signup(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Me(c fiber.Ctx) error
	Captcha(c fiber.Ctx) error
}

// AuthHandler handles signup, login and token endpoints
type AuthHandler struct {
	base
	signupFlow businessflow.SignupFlow
	loginFlow  businessflow.LoginFlow
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(signupFlow businessflow.SignupFlow, loginFlow businessflow.LoginFlow, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		base:       newBase(logger),
		signupFlow: signupFlow,
		loginFlow:  loginFlow,
	}
}

// Signup handles user registration
// @Summary Register a user
// @Description Owners get a new store, staff join an existing one
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Signup information"
// @Success 201 {object} dto.JSendResponse{data=dto.ItemResponse[dto.UserResponse]}
// @Failure 409 {object} dto.JSendResponse "Email is already in use"
// @Failure 422 {object} dto.JSendResponse "Validation failed"
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/auth/signup")
	defer cancel()

	var req dto.SignupRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	user, err := h.signupFlow.Signup(ctx, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(dto.NewItem(user)))
}

// Login handles user authentication
// @Summary User Login
// @Description Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.JSendResponse{data=dto.TokenResponse}
// @Failure 401 {object} dto.JSendResponse "Invalid email or password"
// @Failure 403 {object} dto.JSendResponse "Account is inactive"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/auth/login")
	defer cancel()

	var req dto.LoginRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	tokens, err := h.loginFlow.Login(ctx, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(tokens))
}

// Refresh exchanges a refresh token for a new pair
// @Summary Refresh tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.JSendResponse{data=dto.TokenResponse}
// @Failure 401 {object} dto.JSendResponse "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/auth/refresh")
	defer cancel()

	var req dto.RefreshTokenRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	tokens, err := h.loginFlow.Refresh(ctx, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(tokens))
}

// Logout revokes the bearer token and an optional refresh token
// @Summary Logout
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.JSendResponse{data=bool}
// @Failure 401 {object} dto.JSendResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/auth/logout")
	defer cancel()

	userID, err := currentUserID(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	token, _ := c.Locals(utils.LocalAccessToken).(string)
	if token == "" {
		return h.handleError(c, ctx, fiber.NewError(fiber.StatusUnauthorized, "Authentication required"))
	}

	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := h.decode(c, &req); err != nil {
			return h.handleError(c, ctx, err)
		}
	}

	if err := h.loginFlow.Logout(ctx, userID, token, &req); err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(true))
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.UserResponse]}
// @Failure 401 {object} dto.JSendResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/auth/me")
	defer cancel()

	userID, err := currentUserID(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	user, err := h.loginFlow.Me(ctx, userID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(user)))
}

// Captcha issues a rotate captcha challenge for login
// @Summary Login captcha
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.JSendResponse{data=dto.CaptchaResponse}
// @Failure 404 {object} dto.JSendResponse "Captcha is disabled"
// @Router /api/v1/auth/captcha [get]
func (h *AuthHandler) Captcha(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/auth/captcha")
	defer cancel()

	challenge, err := h.loginFlow.Captcha(ctx)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(challenge))
}
