// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreAccessChecker resolves the caller's membership in a store
type StoreAccessChecker interface {
	CheckAccess(ctx context.Context, userID, storeID uuid.UUID, ownerOnly bool) (*models.UserStore, error)
}

// AuthMiddleware handles JWT token validation and store access for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
	stores       StoreAccessChecker
	logger       *zap.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService, stores StoreAccessChecker, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		tokenService: tokenService,
		stores:       stores,
		logger:       logger,
	}
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.Error(message, fiber.StatusUnauthorized, nil))
}

// Authenticate is the middleware function that validates Bearer access tokens
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Access token is required")
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired")
			case errors.Is(err, services.ErrTokenRevoked):
				return unauthorized(c, "Access token has been revoked")
			default:
				return unauthorized(c, "Invalid access token")
			}
		}
		if claims.TokenType != services.TokenTypeAccess {
			return unauthorized(c, "Invalid access token")
		}

		c.Locals(utils.LocalUserID, claims.UserID)
		c.Locals(utils.LocalAccessToken, token)
		return c.Next()
	}
}

// RequireStoreAccess verifies that the caller belongs to the :store_id store.
// ownerOnly additionally requires the owner role.
func (m *AuthMiddleware) RequireStoreAccess(ownerOnly bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, ok := c.Locals(utils.LocalUserID).(uuid.UUID)
		if !ok {
			return unauthorized(c, "Authentication required")
		}

		storeID, err := uuid.Parse(c.Params("store_id"))
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.Fail(map[string]string{
				"store_id": "store_id must be a valid UUID",
			}))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		membership, err := m.stores.CheckAccess(ctx, userID, storeID, ownerOnly)
		if err != nil {
			if be, ok := businessflow.AsBusinessError(err); ok && be.Status != 0 && be.Status < fiber.StatusInternalServerError {
				return c.Status(be.Status).JSON(dto.Error(be.Message, be.Status, nil))
			}
			m.logger.Error("Store access check failed",
				zap.String("store_id", storeID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Error("Failed to verify store access", fiber.StatusInternalServerError, nil))
		}

		c.Locals(utils.LocalStoreID, storeID)
		c.Locals(utils.LocalMembership, membership)
		return c.Next()
	}
}
