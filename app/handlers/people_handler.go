package handlers

import (
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// CustomerHandler serves the customers of a store. Owner only.
type CustomerHandler struct {
	base
	customerFlow businessflow.CustomerFlow
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerFlow businessflow.CustomerFlow, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{base: newBase(logger), customerFlow: customerFlow}
}

// ListCustomers lists customers, newest first
// @Summary List customers
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 100)" default(10)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.CustomerResponse]}
// @Failure 403 {object} dto.JSendResponse "Only store owners can perform this action"
// @Router /api/v1/stores/{store_id}/customers [get]
func (h *CustomerHandler) ListCustomers(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/customers")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, peoplePages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	customers, err := h.customerFlow.ListCustomers(ctx, storeID, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(customers))
}

// SearchCustomers ranks customers by name, phone, email and address
// @Summary Search customers
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.CustomerResponse]}
// @Router /api/v1/stores/{store_id}/customers/search [get]
func (h *CustomerHandler) SearchCustomers(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/customers/search")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, peoplePages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	customers, err := h.customerFlow.SearchCustomers(ctx, storeID, c.Query("q"), page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(customers))
}

// GetCustomer returns one customer
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param customer_id path string true "Customer ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.CustomerResponse]}
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/customers/{customer_id} [get]
func (h *CustomerHandler) GetCustomer(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/customers/:customer_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	customerID, err := pathUUID(c, "customer_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	customer, err := h.customerFlow.GetCustomer(ctx, storeID, customerID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(customer)))
}

// CreateCustomer registers a customer
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.CreateCustomerRequest true "Customer"
// @Success 201 {object} dto.JSendResponse{data=dto.ItemResponse[dto.CustomerResponse]}
// @Failure 422 {object} dto.JSendResponse "Invalid date format for dob"
// @Router /api/v1/stores/{store_id}/customers [post]
func (h *CustomerHandler) CreateCustomer(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/customers")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.CreateCustomerRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	customer, err := h.customerFlow.CreateCustomer(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(dto.NewItem(customer)))
}

// UpdateCustomer partially updates a customer
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param customer_id path string true "Customer ID"
// @Param request body dto.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.CustomerResponse]}
// @Router /api/v1/stores/{store_id}/customers/{customer_id} [put]
func (h *CustomerHandler) UpdateCustomer(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/customers/:customer_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	customerID, err := pathUUID(c, "customer_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.UpdateCustomerRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	customer, err := h.customerFlow.UpdateCustomer(ctx, storeID, customerID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(customer)))
}

// DeleteCustomer removes a customer
// @Summary Delete customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param customer_id path string true "Customer ID"
// @Success 200 {object} dto.JSendResponse{data=dto.MessageResponse}
// @Router /api/v1/stores/{store_id}/customers/{customer_id} [delete]
func (h *CustomerHandler) DeleteCustomer(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/customers/:customer_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	customerID, err := pathUUID(c, "customer_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	msg, err := h.customerFlow.DeleteCustomer(ctx, storeID, customerID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(msg))
}

// StaffHandler manages the staff accounts of a store. Owner only.
type StaffHandler struct {
	base
	staffFlow businessflow.StaffFlow
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(staffFlow businessflow.StaffFlow, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{base: newBase(logger), staffFlow: staffFlow}
}

// CreateStaff creates a staff account and emails its credentials
// @Summary Create staff
// @Tags Staffs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.CreateStaffRequest true "Staff"
// @Success 201 {object} dto.JSendResponse{data=dto.CreateStaffResponse}
// @Failure 409 {object} dto.JSendResponse "User is already a member of this store"
// @Router /api/v1/stores/{store_id}/staffs [post]
func (h *StaffHandler) CreateStaff(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/staffs")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.CreateStaffRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	resp, err := h.staffFlow.CreateStaff(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success(resp))
}

// ListStaff lists the staff members of a store
// @Summary List staff
// @Tags Staffs
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 100)" default(10)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.StaffResponse]}
// @Router /api/v1/stores/{store_id}/staffs [get]
func (h *StaffHandler) ListStaff(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/staffs")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, peoplePages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	staff, err := h.staffFlow.ListStaff(ctx, storeID, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(staff))
}

// SearchStaff ranks staff by email, display name and phone
// @Summary Search staff
// @Tags Staffs
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.StaffResponse]}
// @Router /api/v1/stores/{store_id}/staffs/search [get]
func (h *StaffHandler) SearchStaff(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/staffs/search")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, peoplePages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	staff, err := h.staffFlow.SearchStaff(ctx, storeID, c.Query("q"), page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(staff))
}

// GetStaff returns one member of the store
// @Summary Get staff
// @Tags Staffs
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param staff_id path string true "Staff user ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.StaffResponse]}
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/staffs/{staff_id} [get]
func (h *StaffHandler) GetStaff(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/staffs/:staff_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	staffID, err := pathUUID(c, "staff_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	staff, err := h.staffFlow.GetStaff(ctx, storeID, staffID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(staff)))
}

// UpdateStaff changes a staff member's profile or active flag
// @Summary Update staff
// @Tags Staffs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param staff_id path string true "Staff user ID"
// @Param request body dto.UpdateStaffRequest true "Fields to change"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.StaffResponse]}
// @Router /api/v1/stores/{store_id}/staffs/{staff_id} [put]
func (h *StaffHandler) UpdateStaff(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/staffs/:staff_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	staffID, err := pathUUID(c, "staff_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.UpdateStaffRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	staff, err := h.staffFlow.UpdateStaff(ctx, storeID, staffID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(staff)))
}

// DeleteStaff removes a staff member from the store
// @Summary Delete staff
// @Tags Staffs
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param staff_id path string true "Staff user ID"
// @Success 200 {object} dto.JSendResponse{data=dto.MessageResponse}
// @Router /api/v1/stores/{store_id}/staffs/{staff_id} [delete]
func (h *StaffHandler) DeleteStaff(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/staffs/:staff_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	staffID, err := pathUUID(c, "staff_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	msg, err := h.staffFlow.DeleteStaff(ctx, storeID, staffID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(msg))
}
