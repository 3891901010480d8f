package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Transaction paging defaults
const (
	DefaultTransactionPageSize = 20
	MaxTransactionPageSize     = 100
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryQueue takes stock decrements off the request path
type InventoryQueue interface {
	Enqueue(storeID, transactionID uuid.UUID, lines []StockDecrement)
}

// TransactionFlow records sales and queries the sales history of a store
type TransactionFlow interface {
	CreateTransaction(ctx context.Context, storeID uuid.UUID, req *dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	ListTransactions(ctx context.Context, storeID uuid.UUID, filter dto.TransactionFilterQuery, page dto.PageQuery) (*dto.PaginationResponse[dto.TransactionSummaryResponse], error)
	GetTransaction(ctx context.Context, storeID, transactionID uuid.UUID) (*dto.TransactionResponse, error)
	ExportTransactions(ctx context.Context, storeID uuid.UUID, filter dto.TransactionFilterQuery) (*dto.ExportFile, error)
}

// TransactionFlowImpl implements the transaction business flow
type TransactionFlowImpl struct {
	transactionRepo repository.TransactionRepository
	productRepo     repository.ProductRepository
	customerRepo    repository.CustomerRepository
	userRepo        repository.UserRepository
	userStoreRepo   repository.UserStoreRepository
	inventory       InventoryQueue
	location        *time.Location
	logger          *zap.Logger
}

// NewTransactionFlow creates a new transaction flow instance. loc is the
// business timezone used to resolve date filters.
func NewTransactionFlow(
	transactionRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	userStoreRepo repository.UserStoreRepository,
	inventory InventoryQueue,
	loc *time.Location,
	logger *zap.Logger,
) TransactionFlow {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionFlowImpl{
		transactionRepo: transactionRepo,
		productRepo:     productRepo,
		customerRepo:    customerRepo,
		userRepo:        userRepo,
		userStoreRepo:   userStoreRepo,
		inventory:       inventory,
		location:        loc,
		logger:          logger,
	}
}

func refSnapshot[T any](id *uuid.UUID, ref *T, name func(*T) string) *models.RefSnapshot {
	if id == nil || ref == nil {
		return nil
	}
	return &models.RefSnapshot{ID: id.String(), Name: name(ref)}
}

// snapshotItems copies the current product data into the transaction lines
func (tf *TransactionFlowImpl) snapshotItems(ctx context.Context, storeID uuid.UUID, cart []dto.CartItemRequest) (models.TransactionItems, []StockDecrement, error) {
	ids := make([]uuid.UUID, 0, len(cart))
	for _, item := range cart {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, nil, productNotFoundInCart(item.ID)
		}
		ids = append(ids, id)
	}

	rows, err := tf.productRepo.ByFilter(ctx, models.ProductFilter{IDs: ids, StoreID: &storeID}, "", 0, 0)
	if err != nil {
		return nil, nil, internal("CREATE_TRANSACTION_FAILED", "Failed to create transaction", err)
	}
	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	items := make(models.TransactionItems, 0, len(cart))
	lines := make([]StockDecrement, 0, len(cart))
	for i, item := range cart {
		p, ok := byID[ids[i]]
		if !ok {
			return nil, nil, productNotFoundInCart(item.ID)
		}
		items = append(items, models.TransactionItem{
			ID:            p.ID.String(),
			Name:          p.Name,
			ThumbnailURL:  p.AvatarURL,
			SellingPrice:  p.SellingPrice,
			PurchasePrice: p.PurchasePrice,
			DiscountPrice: p.DiscountPrice,
			Quantity:      item.Quantity,
			Barcode:       p.Barcode,
			Brand:         refSnapshot(p.BrandID, p.Brand, func(b *models.Brand) string { return b.Name }),
			Category:      refSnapshot(p.CategoryID, p.Category, func(c *models.Category) string { return c.Name }),
		})
		lines = append(lines, StockDecrement{ProductID: p.ID, Quantity: item.Quantity})
	}
	return items, lines, nil
}

// customerSnapshot resolves the buyer. Unknown or missing ids fall back to the walk-in customer.
func (tf *TransactionFlowImpl) customerSnapshot(ctx context.Context, storeID uuid.UUID, rawID *string) (*uuid.UUID, models.CustomerSnapshot, error) {
	if rawID == nil || *rawID == "" {
		return nil, models.WalkInCustomer(), nil
	}
	id, err := uuid.Parse(*rawID)
	if err != nil {
		return nil, models.WalkInCustomer(), nil
	}
	customer, err := tf.customerRepo.ByID(ctx, id)
	if err != nil {
		return nil, models.CustomerSnapshot{}, internal("CREATE_TRANSACTION_FAILED", "Failed to create transaction", err)
	}
	if customer == nil || customer.StoreID != storeID {
		logWith(ctx, tf.logger).Warn("Transaction references an unknown customer, using walk-in", zap.String("customer_id", id.String()))
		return nil, models.WalkInCustomer(), nil
	}

	snap := models.CustomerSnapshot{
		ID:    utils.ToPtr(customer.ID.String()),
		Name:  customer.Name,
		Email: customer.Email,
	}
	if customer.Phone != "" {
		snap.Phone = utils.ToPtr(customer.Phone)
	}
	return &customer.ID, snap, nil
}

// staffSnapshot resolves the seller. Unknown ids yield no snapshot.
func (tf *TransactionFlowImpl) staffSnapshot(ctx context.Context, storeID uuid.UUID, rawID *string) (*uuid.UUID, *models.StaffSnapshot, error) {
	if rawID == nil || *rawID == "" {
		return nil, nil, nil
	}
	id, err := uuid.Parse(*rawID)
	if err != nil {
		return nil, nil, nil
	}
	user, err := tf.userRepo.ByID(ctx, id)
	if err != nil {
		return nil, nil, internal("CREATE_TRANSACTION_FAILED", "Failed to create transaction", err)
	}
	if user == nil {
		return nil, nil, nil
	}
	membership, err := tf.userStoreRepo.ByUserAndStore(ctx, id, storeID)
	if err != nil {
		return nil, nil, internal("CREATE_TRANSACTION_FAILED", "Failed to create transaction", err)
	}
	if membership == nil {
		return nil, nil, nil
	}

	return &user.ID, &models.StaffSnapshot{
		ID:    user.ID.String(),
		Name:  user.Name(),
		Phone: user.Phone,
		Email: user.Email,
		Role:  membership.Role,
	}, nil
}

// CreateTransaction records a sale. Stock is decremented asynchronously once
// the transaction is saved.
func (tf *TransactionFlowImpl) CreateTransaction(ctx context.Context, storeID uuid.UUID, req *dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	method := models.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, badRequest("INVALID_PAYMENT_METHOD", "Invalid payment method", nil)
	}

	items, lines, err := tf.snapshotItems(ctx, storeID, req.Items)
	if err != nil {
		return nil, err
	}
	customerID, customer, err := tf.customerSnapshot(ctx, storeID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	staffID, staff, err := tf.staffSnapshot(ctx, storeID, req.StaffID)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:                  uuid.New(),
		StoreID:             storeID,
		CustomerID:          customerID,
		StaffID:             staffID,
		TotalItems:          req.TotalItems,
		TotalSellingPrices:  req.TotalSellingPrices,
		TotalPurchasePrices: req.TotalPurchasePrices,
		TotalDiscountPrices: req.TotalDiscountPrices,
		FinalPrices:         req.FinalPrices,
		PaymentMethod:       method,
		Note:                req.Note,
		Items:               items,
		Customer:            customer,
		Staff:               staff,
	}
	if err := tf.transactionRepo.Save(ctx, txn); err != nil {
		return nil, internal("CREATE_TRANSACTION_FAILED", "Failed to create transaction", err)
	}

	if tf.inventory != nil {
		tf.inventory.Enqueue(storeID, txn.ID, lines)
	}

	logWith(ctx, tf.logger).Info("Transaction created",
		zap.String("store_id", storeID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.Float64("final_prices", txn.FinalPrices),
		zap.Int("lines", len(items)))

	resp := ToTransactionResponse(txn)
	return &resp, nil
}

// buildFilter validates the raw query filters
func (tf *TransactionFlowImpl) buildFilter(storeID uuid.UUID, q dto.TransactionFilterQuery) (models.TransactionFilter, error) {
	filter := models.TransactionFilter{StoreID: &storeID}

	if q.CustomerID != "" {
		id, err := uuid.Parse(q.CustomerID)
		if err != nil {
			return filter, badRequest("INVALID_CUSTOMER_ID", "Invalid customer_id", err)
		}
		filter.CustomerID = &id
	}
	if q.StaffID != "" {
		id, err := uuid.Parse(q.StaffID)
		if err != nil {
			return filter, badRequest("INVALID_STAFF_ID", "Invalid staff_id", err)
		}
		filter.StaffID = &id
	}

	start, end, err := parseDateRange(q.StartDate, q.EndDate, tf.location)
	if err != nil {
		return filter, err
	}
	filter.CreatedAfter, filter.CreatedBefore = start, end

	if q.MinAmount != nil && q.MaxAmount != nil && *q.MinAmount > *q.MaxAmount {
		return filter, badRequest("INVALID_AMOUNT_RANGE", "min_amount must be less than or equal to max_amount", nil)
	}
	filter.MinAmount, filter.MaxAmount = q.MinAmount, q.MaxAmount

	if q.PaymentMethod != "" {
		method := models.PaymentMethod(strings.ToUpper(q.PaymentMethod))
		if !method.Valid() {
			return filter, badRequest("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid payment_method: %s", q.PaymentMethod), nil)
		}
		filter.PaymentMethod = &method
	}
	if s := strings.TrimSpace(q.Query); s != "" {
		filter.Query = &s
	}
	return filter, nil
}

func (tf *TransactionFlowImpl) ListTransactions(ctx context.Context, storeID uuid.UUID, q dto.TransactionFilterQuery, page dto.PageQuery) (*dto.PaginationResponse[dto.TransactionSummaryResponse], error) {
	filter, err := tf.buildFilter(storeID, q)
	if err != nil {
		return nil, err
	}

	total, err := tf.transactionRepo.Count(ctx, filter)
	if err != nil {
		return nil, internal("LIST_TRANSACTIONS_FAILED", "Failed to get transactions", err)
	}
	rows, err := tf.transactionRepo.ByFilter(ctx, filter, "created_at DESC", page.Limit(), page.Offset())
	if err != nil {
		return nil, internal("LIST_TRANSACTIONS_FAILED", "Failed to get transactions", err)
	}

	items := make([]dto.TransactionSummaryResponse, 0, len(rows))
	for _, t := range rows {
		items = append(items, ToTransactionSummary(t))
	}
	resp := dto.NewPagination(items, total, max(page.Page, 1), page.Size)
	// an empty history is still one (empty) page
	if total == 0 {
		resp.Pages = 1
	}
	return &resp, nil
}

func (tf *TransactionFlowImpl) GetTransaction(ctx context.Context, storeID, transactionID uuid.UUID) (*dto.TransactionResponse, error) {
	txn, err := tf.transactionRepo.ByID(ctx, transactionID)
	if err != nil {
		return nil, internal("GET_TRANSACTION_FAILED", "Failed to get transaction", err)
	}
	if txn == nil {
		return nil, notFound("TRANSACTION_NOT_FOUND", "Transaction not found", ErrTransactionNotFound)
	}
	if txn.StoreID != storeID {
		return nil, notFound("TRANSACTION_NOT_IN_STORE", "Transaction not found in this store", ErrTransactionNotInStore)
	}
	resp := ToTransactionResponse(txn)
	return &resp, nil
}

var exportHeader = []any{
	"Transaction ID", "Created At", "Customer", "Staff", "Payment Method", "Total Items",
	"Total Selling Prices", "Total Purchase Prices", "Total Discount Prices", "Final Prices", "Note",
}

// ExportTransactions writes every matching transaction to an .xlsx workbook
func (tf *TransactionFlowImpl) ExportTransactions(ctx context.Context, storeID uuid.UUID, q dto.TransactionFilterQuery) (*dto.ExportFile, error) {
	filter, err := tf.buildFilter(storeID, q)
	if err != nil {
		return nil, err
	}
	rows, err := tf.transactionRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, internal("EXPORT_TRANSACTIONS_FAILED", "Failed to export transactions", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Transactions"
	if err := xl.SetSheetName("Sheet1", sheet); err != nil {
		return nil, internal("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	if err := xl.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, internal("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	for i, t := range rows {
		summary := ToTransactionSummary(t)
		record := []any{
			t.ID.String(),
			t.CreatedAt.In(tf.location).Format("2006-01-02 15:04:05"),
			summary.CustomerName,
			summary.StaffName,
			string(t.PaymentMethod),
			t.TotalItems,
			t.TotalSellingPrices,
			t.TotalPurchasePrices,
			t.TotalDiscountPrices,
			t.FinalPrices,
			t.Note,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(sheet, cell, &record); err != nil {
			return nil, internal("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, internal("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return &dto.ExportFile{
		FileName:    fmt.Sprintf("transactions_%s.xlsx", time.Now().In(tf.location).Format("20060102_150405")),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}
