package businessflow_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	testingutil "github.com/cherriedy/ban-hang-so-api/testing"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "a-test-secret-that-is-at-least-32-characters"

func newTokenService(t *testing.T) services.TokenService {
	t.Helper()
	ts, err := services.NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", testSecret)
	require.NoError(t, err)
	return ts
}

func TestSignup(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		flow := businessflow.NewSignupFlow(e.users, e.stores, e.members, nil, e.tx, bcrypt.MinCost, nil)

		t.Run("OwnerCreatesStore", func(t *testing.T) {
			resp, err := flow.Signup(e.ctx, &dto.SignupRequest{
				Email:       "Owner@Example.com",
				Password:    "secret123",
				DisplayName: "Co Ba",
				Role:        utils.RoleOwner,
				StoreInfo:   &dto.StoreInfoRequest{Name: "Tap Hoa Co Ba"},
			})
			require.NoError(t, err)
			assert.Equal(t, "owner@example.com", resp.Email)
			assert.Equal(t, "Co Ba", resp.ContactName)
			require.Len(t, resp.Stores, 1)
			assert.Equal(t, utils.RoleOwner, resp.Stores[0].Role)

			storeID := uuid.MustParse(resp.Stores[0].ID)
			store, err := e.stores.ByID(e.ctx, storeID)
			require.NoError(t, err)
			require.NotNil(t, store)
			assert.Equal(t, "Tap Hoa Co Ba", store.Name)

			user, err := e.users.ByEmail(e.ctx, "owner@example.com")
			require.NoError(t, err)
			checkPassword(t, user.PasswordHash, "secret123")
		})

		t.Run("EmptyRoleDefaultsToOwner", func(t *testing.T) {
			resp, err := flow.Signup(e.ctx, &dto.SignupRequest{
				Email:     "implicit@example.com",
				Password:  "secret123",
				StoreInfo: &dto.StoreInfoRequest{Name: "Implicit"},
			})
			require.NoError(t, err)
			require.Len(t, resp.Stores, 1)
			assert.Equal(t, utils.RoleOwner, resp.Stores[0].Role)
		})

		t.Run("StaffJoinsExistingStore", func(t *testing.T) {
			_, store := e.ownerWithStore(t)
			resp, err := flow.Signup(e.ctx, &dto.SignupRequest{
				Email:    "cashier@example.com",
				Password: "secret123",
				Role:     utils.RoleStaff,
				StoreID:  store.ID.String(),
			})
			require.NoError(t, err)
			require.Len(t, resp.Stores, 1)
			assert.Equal(t, store.ID.String(), resp.Stores[0].ID)
			assert.Equal(t, utils.RoleStaff, resp.Stores[0].Role)
		})

		t.Run("Validation", func(t *testing.T) {
			missingStore := uuid.New().String()
			cases := []struct {
				name    string
				req     dto.SignupRequest
				status  int
				message string
			}{
				{"owner without store info", dto.SignupRequest{Email: "a@example.com", Password: "secret123", Role: utils.RoleOwner},
					http.StatusBadRequest, "Store information is required for owner role"},
				{"staff without store id", dto.SignupRequest{Email: "b@example.com", Password: "secret123", Role: utils.RoleStaff},
					http.StatusBadRequest, "Store ID is required for staff role"},
				{"unknown role", dto.SignupRequest{Email: "c@example.com", Password: "secret123", Role: "manager"},
					http.StatusBadRequest, "Role must be either 'owner' or 'staff'"},
				{"staff of missing store", dto.SignupRequest{Email: "d@example.com", Password: "secret123", Role: utils.RoleStaff, StoreID: missingStore},
					http.StatusBadRequest, "Store with ID " + missingStore + " does not exist"},
				{"duplicate email", dto.SignupRequest{Email: "OWNER@example.com", Password: "secret123", StoreInfo: &dto.StoreInfoRequest{Name: "Dup"}},
					http.StatusConflict, "Email is already in use."},
			}
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					_, err := flow.Signup(e.ctx, &tc.req)
					requireBusinessError(t, err, tc.status, tc.message)
				})
			}
		})

		t.Run("DuplicateDoesNotLeaveAStoreBehind", func(t *testing.T) {
			before, err := e.stores.Count(e.ctx, models.StoreFilter{})
			require.NoError(t, err)
			_, err = flow.Signup(e.ctx, &dto.SignupRequest{
				Email:     "owner@example.com",
				Password:  "secret123",
				StoreInfo: &dto.StoreInfoRequest{Name: "Should roll back"},
			})
			require.Error(t, err)
			after, err := e.stores.Count(e.ctx, models.StoreFilter{})
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	})
}

func TestLogin(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		tokens := newTokenService(t)
		flow := businessflow.NewLoginFlow(e.users, e.members, tokens, nil, false, nil)

		user, store := e.ownerWithStore(t)

		t.Run("Success", func(t *testing.T) {
			resp, err := flow.Login(e.ctx, &dto.LoginRequest{Email: strings.ToUpper(user.Email), Password: testingutil.TestPassword})
			require.NoError(t, err)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.Equal(t, 3600, resp.ExpiresIn)
			require.NotNil(t, resp.User)
			require.Len(t, resp.User.Stores, 1)
			assert.Equal(t, store.ID.String(), resp.User.Stores[0].ID)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := flow.Login(e.ctx, &dto.LoginRequest{Email: user.Email, Password: "nope"})
			requireBusinessError(t, err, http.StatusUnauthorized, "Invalid email or password")
		})

		t.Run("UnknownUser", func(t *testing.T) {
			_, err := flow.Login(e.ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
			requireBusinessError(t, err, http.StatusUnauthorized, "Invalid email or password")
		})

		t.Run("InactiveUser", func(t *testing.T) {
			inactive, err := e.fixtures.CreateTestUser()
			require.NoError(t, err)
			inactive.Active = utils.ToPtr(false)
			require.NoError(t, e.users.Update(e.ctx, inactive))

			_, err = flow.Login(e.ctx, &dto.LoginRequest{Email: inactive.Email, Password: testingutil.TestPassword})
			requireBusinessError(t, err, http.StatusForbidden, "Account is inactive")
		})

		t.Run("RefreshRotatesPair", func(t *testing.T) {
			login, err := flow.Login(e.ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword})
			require.NoError(t, err)

			refreshed, err := flow.Refresh(e.ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
			require.NoError(t, err)
			assert.NotEmpty(t, refreshed.AccessToken)
			assert.NotEmpty(t, refreshed.RefreshToken)

			_, err = flow.Refresh(e.ctx, &dto.RefreshTokenRequest{RefreshToken: "garbage"})
			requireBusinessError(t, err, http.StatusUnauthorized, "Invalid or expired refresh token")
		})

		t.Run("Me", func(t *testing.T) {
			me, err := flow.Me(e.ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, user.Email, me.Email)
			require.Len(t, me.Stores, 1)

			_, err = flow.Me(e.ctx, uuid.New())
			requireBusinessError(t, err, http.StatusNotFound, "User not found")
		})

		t.Run("CaptchaDisabled", func(t *testing.T) {
			_, err := flow.Captcha(e.ctx)
			requireBusinessError(t, err, http.StatusNotFound, "")
		})

		t.Run("CaptchaRequiredWhenEnabled", func(t *testing.T) {
			captcha := services.NewCaptchaServiceRotate(clock.New(), time.Minute, 5, 0)
			guarded := businessflow.NewLoginFlow(e.users, e.members, tokens, captcha, true, nil)

			_, err := guarded.Login(e.ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword})
			be, ok := businessflow.AsBusinessError(err)
			require.True(t, ok)
			assert.Equal(t, "CAPTCHA_REQUIRED", be.Code)

			angle := 42.0
			_, err = guarded.Login(e.ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword, CaptchaID: "unknown", CaptchaAngle: &angle})
			be, ok = businessflow.AsBusinessError(err)
			require.True(t, ok)
			assert.Equal(t, "CAPTCHA_INVALID", be.Code)
		})
	})
}
