package businessflow

import (
	"context"
	"errors"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTypeBearer = "Bearer"

// LoginFlow handles authentication and the current user profile
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout revokes the caller's access token and, when given, their refresh token
	Logout(ctx context.Context, userID uuid.UUID, accessToken string, req *dto.LogoutRequest) error
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	Captcha(ctx context.Context) (*dto.CaptchaResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo       repository.UserRepository
	userStoreRepo  repository.UserStoreRepository
	tokenService   services.TokenService
	captchaService services.CaptchaService
	captchaEnabled bool
	logger         *zap.Logger
}

// NewLoginFlow creates a new login flow instance. captchaService may be nil
// when login captcha is disabled.
func NewLoginFlow(
	userRepo repository.UserRepository,
	userStoreRepo repository.UserStoreRepository,
	tokenService services.TokenService,
	captchaService services.CaptchaService,
	captchaEnabled bool,
	logger *zap.Logger,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:       userRepo,
		userStoreRepo:  userStoreRepo,
		tokenService:   tokenService,
		captchaService: captchaService,
		captchaEnabled: captchaEnabled && captchaService != nil,
		logger:         logger,
	}
}

// Login authenticates a user with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if lf.captchaEnabled {
		if req.CaptchaID == "" || req.CaptchaAngle == nil {
			return nil, badRequest("CAPTCHA_REQUIRED", "Captcha is required", ErrCaptchaRequired)
		}
		if !lf.captchaService.VerifyRotate(ctx, req.CaptchaID, *req.CaptchaAngle) {
			return nil, badRequest("CAPTCHA_INVALID", "Captcha verification failed", ErrCaptchaInvalid)
		}
	}

	user, err := lf.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, internal("LOGIN_FAILED", "Login failed", err)
	}
	if user == nil {
		return nil, unauthorized("INVALID_CREDENTIALS", "Invalid email or password", ErrUserNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, unauthorized("INVALID_CREDENTIALS", "Invalid email or password", ErrIncorrectPassword)
	}
	// Inactive accounts are reported only after the password matched
	if !utils.IsTrue(user.Active) {
		return nil, forbidden("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}

	memberships, err := lf.userStoreRepo.ListWithStores(ctx, user.ID)
	if err != nil {
		return nil, internal("LOGIN_FAILED", "Login failed", err)
	}

	access, refresh, err := lf.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, internal("TOKEN_GENERATION_FAILED", "Login failed", err)
	}

	logWith(ctx, lf.logger).Info("User logged in", zap.String("user_id", user.ID.String()))

	profile := ToUserResponse(user, memberships)
	return lf.tokenResponse(access, refresh, &profile), nil
}

// Refresh rotates a refresh token into a new token pair
func (lf *LoginFlowImpl) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := lf.tokenService.GetTokenClaims(req.RefreshToken)
	if err != nil {
		return nil, unauthorized("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", errors.Join(ErrInvalidRefreshToken, err))
	}

	user, err := lf.userRepo.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, internal("REFRESH_FAILED", "Failed to refresh token", err)
	}
	if user == nil {
		return nil, unauthorized("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", ErrUserNotFound)
	}
	if !utils.IsTrue(user.Active) {
		return nil, forbidden("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}

	access, refresh, err := lf.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, unauthorized("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", errors.Join(ErrInvalidRefreshToken, err))
	}
	return lf.tokenResponse(access, refresh, nil), nil
}

func (lf *LoginFlowImpl) Logout(ctx context.Context, userID uuid.UUID, accessToken string, req *dto.LogoutRequest) error {
	if req != nil && req.RefreshToken != "" {
		claims, err := lf.tokenService.GetTokenClaims(req.RefreshToken)
		if err != nil || claims.UserID != userID || claims.TokenType != services.TokenTypeRefresh {
			return unauthorized("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", errors.Join(ErrInvalidRefreshToken, err))
		}
		if err := lf.tokenService.RevokeToken(req.RefreshToken); err != nil {
			return internal("LOGOUT_FAILED", "Logout failed", err)
		}
	}

	if err := lf.tokenService.RevokeToken(accessToken); err != nil {
		return internal("LOGOUT_FAILED", "Logout failed", err)
	}

	logWith(ctx, lf.logger).Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// Me returns the authenticated user with their stores
func (lf *LoginFlowImpl) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := lf.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, internal("GET_USER_FAILED", "Failed to get user", err)
	}
	if user == nil {
		return nil, notFound("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	memberships, err := lf.userStoreRepo.ListWithStores(ctx, user.ID)
	if err != nil {
		return nil, internal("GET_USER_FAILED", "Failed to get user", err)
	}
	resp := ToUserResponse(user, memberships)
	return &resp, nil
}

// Captcha issues a rotate challenge for the login form
func (lf *LoginFlowImpl) Captcha(ctx context.Context) (*dto.CaptchaResponse, error) {
	if lf.captchaService == nil {
		return nil, notFound("CAPTCHA_DISABLED", "Captcha is not enabled", nil)
	}
	ch, err := lf.captchaService.GenerateRotate(ctx)
	if err != nil {
		return nil, internal("CAPTCHA_FAILED", "Failed to generate captcha", err)
	}
	return &dto.CaptchaResponse{
		ID:          ch.ID,
		MasterImage: ch.MasterImageBase64,
		ThumbImage:  ch.ThumbImageBase64,
	}, nil
}

func (lf *LoginFlowImpl) tokenResponse(access, refresh string, user *dto.UserResponse) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(lf.tokenService.AccessTokenTTL().Seconds()),
		User:         user,
	}
}
