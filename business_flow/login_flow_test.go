package businessflow_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginFlow_Logout(t *testing.T) {
	ctx := context.Background()
	ts := newTokenService(t)
	flow := businessflow.NewLoginFlow(nil, nil, ts, nil, false, nil)
	userID := uuid.New()

	t.Run("revokes access and refresh tokens", func(t *testing.T) {
		access, refresh, err := ts.GenerateTokens(userID)
		require.NoError(t, err)

		require.NoError(t, flow.Logout(ctx, userID, access, &dto.LogoutRequest{RefreshToken: refresh}))

		_, err = ts.ValidateToken(access)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
		_, _, err = ts.RefreshToken(refresh)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
	})

	t.Run("without a refresh token only the access token goes", func(t *testing.T) {
		access, refresh, err := ts.GenerateTokens(userID)
		require.NoError(t, err)

		require.NoError(t, flow.Logout(ctx, userID, access, &dto.LogoutRequest{}))

		_, err = ts.ValidateToken(access)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
		_, _, err = ts.RefreshToken(refresh)
		assert.NoError(t, err)
	})

	t.Run("foreign refresh token is rejected", func(t *testing.T) {
		access, _, err := ts.GenerateTokens(userID)
		require.NoError(t, err)
		_, otherRefresh, err := ts.GenerateTokens(uuid.New())
		require.NoError(t, err)

		err = flow.Logout(ctx, userID, access, &dto.LogoutRequest{RefreshToken: otherRefresh})
		requireBusinessError(t, err, http.StatusUnauthorized, "Invalid or expired refresh token")
		assert.ErrorIs(t, err, businessflow.ErrInvalidRefreshToken)

		_, err = ts.ValidateToken(access)
		assert.NoError(t, err, "access token stays valid when logout fails")
	})

	t.Run("access token in place of refresh token is rejected", func(t *testing.T) {
		access, _, err := ts.GenerateTokens(userID)
		require.NoError(t, err)

		err = flow.Logout(ctx, userID, access, &dto.LogoutRequest{RefreshToken: access})
		requireBusinessError(t, err, http.StatusUnauthorized, "Invalid or expired refresh token")
	})
}
