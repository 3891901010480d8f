// Package businessflow contains the business logic of the point-of-sale API.
// Flows validate business rules, coordinate repositories and services, and
// return DTOs or *BusinessError values the handler layer turns into JSend.
package businessflow

import (
	"context"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// fieldValidator checks single values that struct tags cannot express, like
// an optional email in a partial update.
var fieldValidator = validator.New()

func logWith(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.With(utils.RequestFields(ctx)...)
}

// orderClause maps a client sort key to "column direction". Unknown keys fall
// back to fallback; direction defaults to desc.
func orderClause(columns map[string]string, sortBy, sortOrder, fallback string) string {
	column, ok := columns[sortBy]
	if !ok {
		column = fallback
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

// ToUserResponse converts a user and their memberships
func ToUserResponse(u *models.User, memberships []*models.UserStore) dto.UserResponse {
	stores := make([]dto.StoreMembership, 0, len(memberships))
	for _, m := range memberships {
		stores = append(stores, dto.StoreMembership{ID: m.StoreID.String(), Role: m.Role})
	}
	return dto.UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		ContactName: u.DisplayName,
		Phone:       u.Phone,
		ImageURL:    u.ImageURL,
		Stores:      stores,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToStoreResponse converts a store. role may be empty.
func ToStoreResponse(s *models.Store, role string) dto.StoreResponse {
	return dto.StoreResponse{
		ID:          s.ID.String(),
		Name:        s.Name,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		Role:        role,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToProductResponse converts a product with its preloaded brand and category
func ToProductResponse(p *models.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:            p.ID.String(),
		StoreID:       p.StoreID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Barcode:       p.Barcode,
		Note:          p.Note,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		DiscountPrice: p.DiscountPrice,
		StockQuantity: p.StockQuantity,
		Status:        p.IsActive(),
		AvatarURL:     p.AvatarURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Brand != nil {
		resp.Brand = &dto.RefResponse{ID: p.Brand.ID.String(), Name: p.Brand.Name}
	}
	if p.Category != nil {
		resp.Category = &dto.RefResponse{ID: p.Category.ID.String(), Name: p.Category.Name}
	}
	return resp
}

// ToSaleProductResponse converts a product to the sales screen shape
func ToSaleProductResponse(p *models.Product) dto.SaleProductResponse {
	return dto.SaleProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		ThumbnailURL:  p.AvatarURL,
		SellingPrice:  p.SellingPrice,
		PurchasePrice: p.PurchasePrice,
		DiscountPrice: p.DiscountPrice,
		Status:        p.IsActive(),
	}
}

func ToCategoryResponse(c *models.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:           c.ID.String(),
		StoreID:      c.StoreID.String(),
		Name:         c.Name,
		ProductCount: c.ProductCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func ToBrandResponse(b *models.Brand) dto.BrandResponse {
	urls := []string(b.ImageURLs)
	if urls == nil {
		urls = []string{}
	}
	return dto.BrandResponse{
		ID:           b.ID.String(),
		StoreID:      b.StoreID.String(),
		Name:         b.Name,
		ImageURLs:    urls,
		ThumbnailURL: b.ThumbnailURL,
		ProductCount: b.ProductCount,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func ToCustomerResponse(c *models.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        c.ID.String(),
		StoreID:   c.StoreID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		DOB:       c.DOB,
		ImageURL:  c.ImageURL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToStaffResponse converts a membership with its preloaded user
func ToStaffResponse(m *models.UserStore) dto.StaffResponse {
	resp := dto.StaffResponse{
		StoreID: m.StoreID.String(),
		Role:    m.Role,
	}
	if u := m.User; u != nil {
		resp.ID = u.ID.String()
		resp.Email = u.Email
		resp.DisplayName = u.DisplayName
		resp.Phone = u.Phone
		resp.ImageURL = u.ImageURL
		resp.Active = utils.IsTrue(u.Active)
		resp.CreatedAt = u.CreatedAt
		resp.UpdatedAt = u.UpdatedAt
	}
	return resp
}

func toRefResponse(r *models.RefSnapshot) *dto.RefResponse {
	if r == nil {
		return nil
	}
	return &dto.RefResponse{ID: r.ID, Name: r.Name}
}

func ToTransactionResponse(t *models.Transaction) dto.TransactionResponse {
	items := make([]dto.TransactionItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransactionItemResponse{
			ID:            it.ID,
			Name:          it.Name,
			ThumbnailURL:  it.ThumbnailURL,
			SellingPrice:  it.SellingPrice,
			PurchasePrice: it.PurchasePrice,
			DiscountPrice: it.DiscountPrice,
			Quantity:      it.Quantity,
			Barcode:       it.Barcode,
			Brand:         toRefResponse(it.Brand),
			Category:      toRefResponse(it.Category),
		})
	}

	resp := dto.TransactionResponse{
		ID:                  t.ID.String(),
		StoreID:             t.StoreID.String(),
		TotalItems:          t.TotalItems,
		TotalSellingPrices:  t.TotalSellingPrices,
		TotalPurchasePrices: t.TotalPurchasePrices,
		TotalDiscountPrices: t.TotalDiscountPrices,
		FinalPrices:         t.FinalPrices,
		PaymentMethod:       string(t.PaymentMethod),
		Note:                t.Note,
		Items:               items,
		Customer: dto.CustomerSnapshotResponse{
			ID:    t.Customer.ID,
			Name:  t.Customer.Name,
			Phone: t.Customer.Phone,
			Email: t.Customer.Email,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.CustomerID != nil {
		resp.CustomerID = utils.ToPtr(t.CustomerID.String())
	}
	if t.StaffID != nil {
		resp.StaffID = utils.ToPtr(t.StaffID.String())
	}
	if s := t.Staff; s != nil {
		resp.Staff = &dto.StaffSnapshotResponse{ID: s.ID, Name: s.Name, Phone: s.Phone, Email: s.Email, Role: s.Role}
	}
	return resp
}

// ToTransactionSummary converts a transaction to its list row
func ToTransactionSummary(t *models.Transaction) dto.TransactionSummaryResponse {
	customerName := t.Customer.Name
	if customerName == "" {
		customerName = t.CustomerName
	}
	if customerName == "" {
		customerName = utils.UnknownCustomerName
	}
	staffName := t.StaffName
	if staffName == "" && t.Staff != nil {
		staffName = t.Staff.Name
	}
	return dto.TransactionSummaryResponse{
		ID:           t.ID.String(),
		CustomerName: customerName,
		StaffName:    staffName,
		Price:        t.FinalPrices,
		CreatedAt:    t.CreatedAt,
	}
}

// markPermanent keeps referenced uploads from being swept. Failures are logged only.
func markPermanent(ctx context.Context, storage services.StorageService, logger *zap.Logger, urls ...string) {
	if storage == nil {
		return
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := storage.MarkPermanent(ctx, u); err != nil {
			logWith(ctx, logger).Warn("Failed to mark image permanent", zap.String("url", u), zap.Error(err))
		}
	}
}
