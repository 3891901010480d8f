package businessflow_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFlow(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		flow := businessflow.NewStoreFlow(e.users, e.stores, e.members, nil, nil)

		owner, store := e.ownerWithStore(t)
		staff, err := e.fixtures.CreateTestUser()
		require.NoError(t, err)
		require.NoError(t, e.fixtures.AddMember(staff.ID, store.ID, utils.RoleStaff))
		outsider, err := e.fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("CheckAccess", func(t *testing.T) {
			m, err := flow.CheckAccess(e.ctx, owner.ID, store.ID, true)
			require.NoError(t, err)
			assert.Equal(t, utils.RoleOwner, m.Role)

			m, err = flow.CheckAccess(e.ctx, staff.ID, store.ID, false)
			require.NoError(t, err)
			assert.Equal(t, utils.RoleStaff, m.Role)

			_, err = flow.CheckAccess(e.ctx, staff.ID, store.ID, true)
			requireBusinessError(t, err, http.StatusForbidden, "Access denied: Only store owners can perform this action")

			_, err = flow.CheckAccess(e.ctx, outsider.ID, store.ID, false)
			requireBusinessError(t, err, http.StatusForbidden, "Access denied: User does not have permission to access this store")

			_, err = flow.CheckAccess(e.ctx, uuid.New(), store.ID, false)
			requireBusinessError(t, err, http.StatusNotFound, "User not found")
		})

		t.Run("ListUserStores", func(t *testing.T) {
			stores, err := flow.ListUserStores(e.ctx, staff.ID, staff.ID)
			require.NoError(t, err)
			require.Len(t, stores, 1)
			assert.Equal(t, store.ID.String(), stores[0].ID)
			assert.Equal(t, utils.RoleStaff, stores[0].Role)

			_, err = flow.ListUserStores(e.ctx, staff.ID, owner.ID)
			requireBusinessError(t, err, http.StatusForbidden, "Access denied: You can only view your own stores")
		})

		t.Run("GetAndUpdate", func(t *testing.T) {
			got, err := flow.GetStore(e.ctx, store.ID, utils.RoleOwner)
			require.NoError(t, err)
			assert.Equal(t, store.Name, got.Name)

			_, err = flow.GetStore(e.ctx, uuid.New(), utils.RoleOwner)
			requireBusinessError(t, err, http.StatusNotFound, "Store not found")

			updated, err := flow.UpdateStore(e.ctx, store.ID, &dto.UpdateStoreRequest{
				Name:        utils.ToPtr("Renamed"),
				Description: utils.ToPtr("new description"),
			})
			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated.Name)
			assert.Equal(t, "new description", updated.Description)
			assert.Equal(t, utils.RoleOwner, updated.Role)
		})
	})
}

func TestStoreFlow_CheckAccessInactiveAccount(t *testing.T) {
	ctx := context.Background()
	storeID := uuid.New()
	active := &models.User{ID: uuid.New(), Active: utils.ToPtr(true)}
	inactive := &models.User{ID: uuid.New(), Active: utils.ToPtr(false)}

	users := &fakeUserRepo{users: map[uuid.UUID]*models.User{active.ID: active, inactive.ID: inactive}}
	members := &fakeMemberRepo{members: []*models.UserStore{
		{UserID: active.ID, StoreID: storeID, Role: utils.RoleStaff},
		{UserID: inactive.ID, StoreID: storeID, Role: utils.RoleStaff},
	}}
	flow := businessflow.NewStoreFlow(users, nil, members, nil, nil)

	m, err := flow.CheckAccess(ctx, active.ID, storeID, false)
	require.NoError(t, err)
	assert.Equal(t, utils.RoleStaff, m.Role)

	m, err = flow.CheckAccess(ctx, inactive.ID, storeID, false)
	assert.Nil(t, m)
	requireBusinessError(t, err, http.StatusForbidden, "Account is inactive")
	assert.ErrorIs(t, err, businessflow.ErrAccountInactive)
}
