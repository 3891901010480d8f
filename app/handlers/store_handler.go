package handlers

import (
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// StoreHandler serves store endpoints
type StoreHandler struct {
	base
	storeFlow businessflow.StoreFlow
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(storeFlow businessflow.StoreFlow, logger *zap.Logger) *StoreHandler {
	return &StoreHandler{base: newBase(logger), storeFlow: storeFlow}
}

// ListUserStores lists the stores a user belongs to
// @Summary List a user's stores
// @Tags Stores
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.JSendResponse{data=object{stores=[]dto.StoreResponse}}
// @Failure 403 {object} dto.JSendResponse "Users may only list their own stores"
// @Router /api/v1/stores/user/{user_id} [get]
func (h *StoreHandler) ListUserStores(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/user")
	defer cancel()

	callerID, err := currentUserID(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	userID, err := pathUUID(c, "user_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	stores, err := h.storeFlow.ListUserStores(ctx, callerID, userID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(fiber.Map{"stores": stores}))
}

// GetStore returns the current store
// @Summary Get store
// @Tags Stores
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.StoreResponse]}
// @Failure 403 {object} dto.JSendResponse
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id} [get]
func (h *StoreHandler) GetStore(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	store, err := h.storeFlow.GetStore(ctx, storeID, currentRole(c))
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(store)))
}

// UpdateStore updates the current store
// @Summary Update store
// @Tags Stores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.UpdateStoreRequest true "Store fields"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.StoreResponse]}
// @Failure 403 {object} dto.JSendResponse "Only store owners can perform this action"
// @Router /api/v1/stores/{store_id} [put]
func (h *StoreHandler) UpdateStore(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	var req dto.UpdateStoreRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	store, err := h.storeFlow.UpdateStore(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(store)))
}
