package handlers

import (
	"context"
	"fmt"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/middleware"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// TransactionHandler records and queries sales
type TransactionHandler struct {
	base
	transactionFlow businessflow.TransactionFlow
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionFlow businessflow.TransactionFlow, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{base: newBase(logger), transactionFlow: transactionFlow}
}

// parseTransactionFilter reads the list and export filters
func parseTransactionFilter(c fiber.Ctx) (dto.TransactionFilterQuery, error) {
	minAmount, err := queryFloat(c, "min_amount")
	if err != nil {
		return dto.TransactionFilterQuery{}, err
	}
	maxAmount, err := queryFloat(c, "max_amount")
	if err != nil {
		return dto.TransactionFilterQuery{}, err
	}
	return dto.TransactionFilterQuery{
		CustomerID:    c.Query("customer_id"),
		StaffID:       c.Query("staff_id"),
		StartDate:     c.Query("start_date"),
		EndDate:       c.Query("end_date"),
		MinAmount:     minAmount,
		MaxAmount:     maxAmount,
		PaymentMethod: c.Query("payment_method"),
		Query:         c.Query("q"),
	}, nil
}

// CreateTransaction records a sale from a cart
// @Summary Create transaction
// @Description Products are snapshotted at sale time. Stock is decremented in the background.
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param request body dto.CreateTransactionRequest true "Cart"
// @Success 201 {object} dto.JSendResponse{data=dto.ItemResponse[dto.TransactionResponse]}
// @Failure 400 {object} dto.JSendResponse "Product with ID ... not found"
// @Failure 422 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/transactions")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	var req dto.CreateTransactionRequest
	if err := h.decode(c, &req); err != nil {
		return h.handleError(c, ctx, err)
	}

	transaction, err := h.transactionFlow.CreateTransaction(ctx, storeID, &req)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	middleware.RecordTransaction(transaction.PaymentMethod, transaction.FinalPrices)
	return c.Status(fiber.StatusCreated).JSON(dto.Success(dto.NewItem(transaction)))
}

// ListTransactions lists transactions, newest first
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 100)" default(20)
// @Param customer_id query string false "Customer ID"
// @Param staff_id query string false "Staff user ID"
// @Param start_date query string false "YYYY, YYYY-MM or YYYY-MM-DD"
// @Param end_date query string false "YYYY, YYYY-MM or YYYY-MM-DD"
// @Param min_amount query number false "Minimum final price"
// @Param max_amount query number false "Maximum final price"
// @Param payment_method query string false "CASH, CREDIT_CARD, MOBILE_BANKING or DIGITAL_WALLET"
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.TransactionSummaryResponse]}
// @Failure 400 {object} dto.JSendResponse "Invalid filter"
// @Router /api/v1/stores/{store_id}/transactions [get]
func (h *TransactionHandler) ListTransactions(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/transactions")
	defer cancel()
	return h.list(ctx, c)
}

// SearchTransactions matches q against the id prefix, customer name and staff name
// @Summary Search transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param q query string false "Search query"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size (max 100)" default(20)
// @Success 200 {object} dto.JSendResponse{data=dto.PaginationResponse[dto.TransactionSummaryResponse]}
// @Router /api/v1/stores/{store_id}/transactions/search [get]
func (h *TransactionHandler) SearchTransactions(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/transactions/search")
	defer cancel()
	return h.list(ctx, c)
}

func (h *TransactionHandler) list(ctx context.Context, c fiber.Ctx) error {
	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	page, err := parsePage(c, transactionPages)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	filter, err := parseTransactionFilter(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	transactions, err := h.transactionFlow.ListTransactions(ctx, storeID, filter, page)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(transactions))
}

// GetTransaction returns a full transaction
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.JSendResponse{data=dto.ItemResponse[dto.TransactionResponse]}
// @Failure 404 {object} dto.JSendResponse
// @Router /api/v1/stores/{store_id}/transactions/{transaction_id} [get]
func (h *TransactionHandler) GetTransaction(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/transactions/:transaction_id")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	transactionID, err := pathUUID(c, "transaction_id")
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	transaction, err := h.transactionFlow.GetTransaction(ctx, storeID, transactionID)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	return c.JSON(dto.Success(dto.NewItem(transaction)))
}

// ExportTransactions streams the filtered transactions as a spreadsheet
// @Summary Export transactions
// @Tags Transactions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param store_id path string true "Store ID"
// @Param start_date query string false "YYYY, YYYY-MM or YYYY-MM-DD"
// @Param end_date query string false "YYYY, YYYY-MM or YYYY-MM-DD"
// @Param payment_method query string false "Payment method"
// @Success 200 {file} file
// @Failure 403 {object} dto.JSendResponse "Only store owners can perform this action"
// @Router /api/v1/stores/{store_id}/transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stores/:store_id/transactions/export")
	defer cancel()

	storeID, err := currentStore(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}
	filter, err := parseTransactionFilter(c)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	file, err := h.transactionFlow.ExportTransactions(ctx, storeID, filter)
	if err != nil {
		return h.handleError(c, ctx, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.FileName))
	return c.Send(file.Content)
}
