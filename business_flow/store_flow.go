package businessflow

import (
	"context"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreFlow handles store membership checks and store details
type StoreFlow interface {
	// CheckAccess returns the caller's membership in the store. ownerOnly
	// additionally requires the owner role.
	CheckAccess(ctx context.Context, userID, storeID uuid.UUID, ownerOnly bool) (*models.UserStore, error)
	ListUserStores(ctx context.Context, callerID, userID uuid.UUID) ([]dto.StoreResponse, error)
	GetStore(ctx context.Context, storeID uuid.UUID, role string) (*dto.StoreResponse, error)
	UpdateStore(ctx context.Context, storeID uuid.UUID, req *dto.UpdateStoreRequest) (*dto.StoreResponse, error)
}

// StoreFlowImpl implements the store business flow
type StoreFlowImpl struct {
	userRepo      repository.UserRepository
	storeRepo     repository.StoreRepository
	userStoreRepo repository.UserStoreRepository
	storage       services.StorageService
	logger        *zap.Logger
}

// NewStoreFlow creates a new store flow instance
func NewStoreFlow(
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	userStoreRepo repository.UserStoreRepository,
	storage services.StorageService,
	logger *zap.Logger,
) StoreFlow {
	return &StoreFlowImpl{
		userRepo:      userRepo,
		storeRepo:     storeRepo,
		userStoreRepo: userStoreRepo,
		storage:       storage,
		logger:        logger,
	}
}

func (sf *StoreFlowImpl) CheckAccess(ctx context.Context, userID, storeID uuid.UUID, ownerOnly bool) (*models.UserStore, error) {
	user, err := sf.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, internal("ACCESS_CHECK_FAILED", "Failed to verify store access", err)
	}
	if user == nil {
		return nil, notFound("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	// deactivated staff lose access with tokens issued before the change
	if !utils.IsTrue(user.Active) {
		return nil, forbidden("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}

	membership, err := sf.userStoreRepo.ByUserAndStore(ctx, userID, storeID)
	if err != nil {
		return nil, internal("ACCESS_CHECK_FAILED", "Failed to verify store access", err)
	}
	if membership == nil {
		return nil, forbidden("STORE_ACCESS_DENIED", "Access denied: User does not have permission to access this store", ErrStoreAccessDenied)
	}
	if ownerOnly && !membership.IsOwner() {
		return nil, forbidden("OWNER_REQUIRED", "Access denied: Only store owners can perform this action", ErrOwnerRequired)
	}
	return membership, nil
}

// ListUserStores lists the stores a user belongs to. Users may only list their own.
func (sf *StoreFlowImpl) ListUserStores(ctx context.Context, callerID, userID uuid.UUID) ([]dto.StoreResponse, error) {
	if callerID != userID {
		return nil, forbidden("LIST_STORES_DENIED", "Access denied: You can only view your own stores", ErrListOtherUsersStores)
	}

	memberships, err := sf.userStoreRepo.ListWithStores(ctx, userID)
	if err != nil {
		return nil, internal("LIST_STORES_FAILED", "Failed to get stores", err)
	}

	stores := make([]dto.StoreResponse, 0, len(memberships))
	for _, m := range memberships {
		// memberships of a deleted store are skipped
		if m.Store == nil {
			continue
		}
		stores = append(stores, ToStoreResponse(m.Store, m.Role))
	}
	return stores, nil
}

func (sf *StoreFlowImpl) GetStore(ctx context.Context, storeID uuid.UUID, role string) (*dto.StoreResponse, error) {
	store, err := sf.storeRepo.ByID(ctx, storeID)
	if err != nil {
		return nil, internal("GET_STORE_FAILED", "Failed to get store", err)
	}
	if store == nil {
		return nil, notFound("STORE_NOT_FOUND", "Store not found", ErrStoreNotFound)
	}
	resp := ToStoreResponse(store, role)
	return &resp, nil
}

func (sf *StoreFlowImpl) UpdateStore(ctx context.Context, storeID uuid.UUID, req *dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	store, err := sf.storeRepo.ByID(ctx, storeID)
	if err != nil {
		return nil, internal("UPDATE_STORE_FAILED", "Failed to update store", err)
	}
	if store == nil {
		return nil, notFound("STORE_NOT_FOUND", "Store not found", ErrStoreNotFound)
	}

	if req.Name != nil {
		store.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		store.Description = *req.Description
	}
	imageChanged := req.ImageURL != nil && *req.ImageURL != store.ImageURL
	if req.ImageURL != nil {
		store.ImageURL = *req.ImageURL
	}

	if err := sf.storeRepo.Update(ctx, store); err != nil {
		return nil, internal("UPDATE_STORE_FAILED", "Failed to update store", err)
	}
	if imageChanged {
		markPermanent(ctx, sf.storage, sf.logger, store.ImageURL)
	}

	resp := ToStoreResponse(store, utils.RoleOwner)
	return &resp, nil
}
