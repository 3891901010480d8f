package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSignupFlow struct {
	req *dto.SignupRequest
	err error
}

func (f *fakeSignupFlow) Signup(_ context.Context, req *dto.SignupRequest) (*dto.UserResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.UserResponse{ID: uuid.NewString(), Email: req.Email, ContactName: req.DisplayName}, nil
}

type fakeLoginFlow struct {
	loginErr error
	meID     uuid.UUID

	logoutToken   string
	logoutRefresh string
	logoutErr     error
}

func (f *fakeLoginFlow) Login(_ context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 3600}, nil
}

func (f *fakeLoginFlow) Refresh(_ context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return &dto.TokenResponse{AccessToken: "access-2", RefreshToken: req.RefreshToken, TokenType: "Bearer"}, nil
}

func (f *fakeLoginFlow) Logout(_ context.Context, _ uuid.UUID, accessToken string, req *dto.LogoutRequest) error {
	f.logoutToken, f.logoutRefresh = accessToken, req.RefreshToken
	return f.logoutErr
}

func (f *fakeLoginFlow) Me(_ context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	f.meID = userID
	return &dto.UserResponse{ID: userID.String()}, nil
}

func (f *fakeLoginFlow) Captcha(context.Context) (*dto.CaptchaResponse, error) {
	return &dto.CaptchaResponse{ID: "challenge"}, nil
}

func newAuthApp(signup *fakeSignupFlow, login *fakeLoginFlow) *fiber.App {
	h := NewAuthHandler(signup, login, nil)
	app := fiber.New()
	app.Post("/auth/signup", h.Signup)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/refresh", h.Refresh)
	app.Get("/auth/captcha", h.Captcha)
	return app
}

func TestAuthHandler_Signup(t *testing.T) {
	signup := &fakeSignupFlow{}
	app := newAuthApp(signup, &fakeLoginFlow{})

	resp, env := doRequest(t, app, http.MethodPost, "/auth/signup",
		`{"email":"owner@example.com","password":"secret123","displayName":"Nguyen Van A","storeInfo":{"name":"Tap hoa"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var item dto.ItemResponse[dto.UserResponse]
	decodeData(t, env, &item)
	assert.Equal(t, "owner@example.com", item.Item.Email)
	require.NotNil(t, signup.req)
	require.NotNil(t, signup.req.StoreInfo)

	resp, env = doRequest(t, app, http.MethodPost, "/auth/signup", `{"email":"not-an-email","password":"123","role":"admin"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var fields map[string]string
	decodeData(t, env, &fields)
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "password must be at least 6 characters", fields["password"])
	assert.Equal(t, "role must be one of: owner staff", fields["role"])
}

func TestAuthHandler_SignupConflict(t *testing.T) {
	signup := &fakeSignupFlow{
		err: businessflow.NewBusinessError("EMAIL_ALREADY_EXISTS", "Email already registered", businessflow.ErrEmailAlreadyExists).WithStatus(http.StatusConflict),
	}
	app := newAuthApp(signup, &fakeLoginFlow{})

	resp, env := doRequest(t, app, http.MethodPost, "/auth/signup", `{"email":"owner@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Email already registered", env.Message)
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("tokens", func(t *testing.T) {
		app := newAuthApp(&fakeSignupFlow{}, &fakeLoginFlow{})
		resp, env := doRequest(t, app, http.MethodPost, "/auth/login", `{"email":"owner@example.com","password":"secret123"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tokens dto.TokenResponse
		decodeData(t, env, &tokens)
		assert.Equal(t, "access", tokens.AccessToken)
		assert.Equal(t, "Bearer", tokens.TokenType)
	})

	t.Run("bad credentials", func(t *testing.T) {
		login := &fakeLoginFlow{
			loginErr: businessflow.NewBusinessError("INVALID_CREDENTIALS", "Invalid email or password", businessflow.ErrIncorrectPassword).WithStatus(http.StatusUnauthorized),
		}
		app := newAuthApp(&fakeSignupFlow{}, login)
		resp, env := doRequest(t, app, http.MethodPost, "/auth/login", `{"email":"owner@example.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid email or password", env.Message)
	})

	t.Run("unexpected failure hides details", func(t *testing.T) {
		login := &fakeLoginFlow{loginErr: context.DeadlineExceeded}
		app := newAuthApp(&fakeSignupFlow{}, login)
		resp, env := doRequest(t, app, http.MethodPost, "/auth/login", `{"email":"owner@example.com","password":"secret123"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal server error", env.Message)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	app := newAuthApp(&fakeSignupFlow{}, &fakeLoginFlow{})

	resp, env := doRequest(t, app, http.MethodPost, "/auth/refresh", `{"refreshToken":"r1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tokens dto.TokenResponse
	decodeData(t, env, &tokens)
	assert.Equal(t, "r1", tokens.RefreshToken)

	resp, _ = doRequest(t, app, http.MethodPost, "/auth/refresh", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAuthHandler_Me(t *testing.T) {
	login := &fakeLoginFlow{}
	h := NewAuthHandler(&fakeSignupFlow{}, login, nil)

	t.Run("unauthenticated", func(t *testing.T) {
		app := fiber.New()
		app.Get("/auth/me", h.Me)
		resp, env := doRequest(t, app, http.MethodGet, "/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "error", env.Status)
	})

	t.Run("authenticated", func(t *testing.T) {
		userID := uuid.New()
		app := fiber.New()
		app.Use(func(c fiber.Ctx) error {
			c.Locals(utils.LocalUserID, userID)
			return c.Next()
		})
		app.Get("/auth/me", h.Me)

		resp, env := doRequest(t, app, http.MethodGet, "/auth/me", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var item dto.ItemResponse[dto.UserResponse]
		decodeData(t, env, &item)
		assert.Equal(t, userID.String(), item.Item.ID)
		assert.Equal(t, userID, login.meID)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	userID := uuid.New()
	newApp := func(login *fakeLoginFlow, token string) *fiber.App {
		h := NewAuthHandler(&fakeSignupFlow{}, login, nil)
		app := fiber.New()
		app.Use(func(c fiber.Ctx) error {
			c.Locals(utils.LocalUserID, userID)
			if token != "" {
				c.Locals(utils.LocalAccessToken, token)
			}
			return c.Next()
		})
		app.Post("/auth/logout", h.Logout)
		return app
	}

	t.Run("empty body", func(t *testing.T) {
		login := &fakeLoginFlow{}
		resp, env := doRequest(t, newApp(login, "a1"), http.MethodPost, "/auth/logout", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, "true", string(env.Data))
		assert.Equal(t, "a1", login.logoutToken)
		assert.Empty(t, login.logoutRefresh)
	})

	t.Run("with refresh token", func(t *testing.T) {
		login := &fakeLoginFlow{}
		resp, _ := doRequest(t, newApp(login, "a1"), http.MethodPost, "/auth/logout", `{"refreshToken":"r1"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "r1", login.logoutRefresh)
	})

	t.Run("rejected refresh token", func(t *testing.T) {
		login := &fakeLoginFlow{
			logoutErr: businessflow.NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", businessflow.ErrInvalidRefreshToken).WithStatus(http.StatusUnauthorized),
		}
		resp, env := doRequest(t, newApp(login, "a1"), http.MethodPost, "/auth/logout", `{"refreshToken":"someone-elses"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid or expired refresh token", env.Message)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		login := &fakeLoginFlow{}
		resp, env := doRequest(t, newApp(login, ""), http.MethodPost, "/auth/logout", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "error", env.Status)
		assert.Empty(t, login.logoutToken)
	})
}
