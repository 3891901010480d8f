package dto

import "time"

// CartItemRequest is one line of a cart
type CartItemRequest struct {
	ID       string `json:"id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreateTransactionRequest records a sale. Totals are computed by the client.
type CreateTransactionRequest struct {
	CustomerID          *string           `json:"customerId" validate:"omitempty,uuid"`
	StaffID             *string           `json:"staffId" validate:"omitempty,uuid"`
	TotalItems          int               `json:"totalItems" validate:"gte=0"`
	TotalSellingPrices  float64           `json:"totalSellingPrices" validate:"gte=0"`
	TotalPurchasePrices float64           `json:"totalPurchasePrices" validate:"gte=0"`
	TotalDiscountPrices float64           `json:"totalDiscountPrices" validate:"gte=0"`
	FinalPrices         float64           `json:"finalPrices" validate:"gte=0"`
	PaymentMethod       string            `json:"paymentMethod" validate:"required,oneof=CASH CREDIT_CARD MOBILE_BANKING DIGITAL_WALLET"`
	Items               []CartItemRequest `json:"items" validate:"required,min=1,dive"`
	Note                string            `json:"note" validate:"max=1000"`
}

// TransactionFilterQuery holds the raw list/export filters
type TransactionFilterQuery struct {
	CustomerID    string
	StaffID       string
	StartDate     string
	EndDate       string
	MinAmount     *float64
	MaxAmount     *float64
	PaymentMethod string
	Query         string
}

// TransactionItemResponse is a product snapshot inside a transaction
type TransactionItemResponse struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ThumbnailURL  *string      `json:"thumbnailUrl"`
	SellingPrice  float64      `json:"sellingPrice"`
	PurchasePrice float64      `json:"purchasePrice"`
	DiscountPrice float64      `json:"discountPrice"`
	Quantity      int          `json:"quantity"`
	Barcode       string       `json:"barcode"`
	Brand         *RefResponse `json:"brand"`
	Category      *RefResponse `json:"category"`
}

// CustomerSnapshotResponse is the customer as it was at sale time
type CustomerSnapshotResponse struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
	Email string  `json:"email"`
}

// StaffSnapshotResponse is the seller as it was at sale time
type StaffSnapshotResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TransactionResponse is a full transaction
type TransactionResponse struct {
	ID                  string                    `json:"id"`
	StoreID             string                    `json:"storeId"`
	CustomerID          *string                   `json:"customerId"`
	StaffID             *string                   `json:"staffId"`
	TotalItems          int                       `json:"totalItems"`
	TotalSellingPrices  float64                   `json:"totalSellingPrices"`
	TotalPurchasePrices float64                   `json:"totalPurchasePrices"`
	TotalDiscountPrices float64                   `json:"totalDiscountPrices"`
	FinalPrices         float64                   `json:"finalPrices"`
	PaymentMethod       string                    `json:"paymentMethod"`
	Note                string                    `json:"note"`
	Items               []TransactionItemResponse `json:"items"`
	Customer            CustomerSnapshotResponse  `json:"customer"`
	Staff               *StaffSnapshotResponse    `json:"staff"`
	CreatedAt           time.Time                 `json:"createdAt"`
	UpdatedAt           time.Time                 `json:"updatedAt"`
}

// TransactionSummaryResponse is a transaction row in lists
type TransactionSummaryResponse struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	StaffName    string    `json:"staffName"`
	Price        float64   `json:"price"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ExportFile is a generated spreadsheet
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// SummaryReportResponse aggregates sales over a period
type SummaryReportResponse struct {
	Revenue      float64   `json:"revenue" example:"1250000"`
	Transactions int64     `json:"transactions" example:"37"`
	Customers    int64     `json:"customers" example:"12"`
	Date         time.Time `json:"date"`
}

// UploadImageResponse describes a stored image
type UploadImageResponse struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
