package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransactionFlow struct {
	created *dto.CreateTransactionRequest
	filter  dto.TransactionFilterQuery
	page    dto.PageQuery
}

func (f *fakeTransactionFlow) CreateTransaction(_ context.Context, storeID uuid.UUID, req *dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	f.created = req
	return &dto.TransactionResponse{
		ID:            uuid.NewString(),
		StoreID:       storeID.String(),
		FinalPrices:   req.FinalPrices,
		PaymentMethod: req.PaymentMethod,
	}, nil
}

func (f *fakeTransactionFlow) ListTransactions(_ context.Context, _ uuid.UUID, filter dto.TransactionFilterQuery, page dto.PageQuery) (*dto.PaginationResponse[dto.TransactionSummaryResponse], error) {
	f.filter, f.page = filter, page
	res := dto.NewPagination[dto.TransactionSummaryResponse](nil, 0, page.Page, page.Size)
	return &res, nil
}

func (f *fakeTransactionFlow) GetTransaction(_ context.Context, _, transactionID uuid.UUID) (*dto.TransactionResponse, error) {
	return &dto.TransactionResponse{ID: transactionID.String()}, nil
}

func (f *fakeTransactionFlow) ExportTransactions(_ context.Context, _ uuid.UUID, filter dto.TransactionFilterQuery) (*dto.ExportFile, error) {
	f.filter = filter
	return &dto.ExportFile{
		FileName:    "transactions_20250101.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     []byte("PK\x03\x04"),
	}, nil
}

func TestTransactionHandler_Create(t *testing.T) {
	storeID := uuid.New()
	flow := &fakeTransactionFlow{}
	h := NewTransactionHandler(flow, nil)
	app := newStoreApp(uuid.New(), storeID, "staff")
	app.Post("/stores/:store_id/transactions", h.CreateTransaction)

	t.Run("created", func(t *testing.T) {
		body := `{"paymentMethod":"CASH","finalPrices":20000,"totalItems":2,
			"items":[{"id":"` + uuid.NewString() + `","quantity":2}]}`
		resp, env := doRequest(t, app, http.MethodPost, "/stores/"+storeID.String()+"/transactions", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.Data))

		var item dto.ItemResponse[dto.TransactionResponse]
		decodeData(t, env, &item)
		assert.Equal(t, "CASH", item.Item.PaymentMethod)
		assert.InDelta(t, 20000, item.Item.FinalPrices, 0.001)
		require.NotNil(t, flow.created)
		assert.Len(t, flow.created.Items, 1)
	})

	t.Run("empty cart and unknown payment method", func(t *testing.T) {
		resp, env := doRequest(t, app, http.MethodPost, "/stores/"+storeID.String()+"/transactions",
			`{"paymentMethod":"BARTER","items":[]}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var fields map[string]string
		decodeData(t, env, &fields)
		assert.Contains(t, fields, "paymentMethod")
		assert.Contains(t, fields, "items")
	})
}

func TestTransactionHandler_ListFilters(t *testing.T) {
	storeID := uuid.New()
	customerID := uuid.NewString()
	flow := &fakeTransactionFlow{}
	h := NewTransactionHandler(flow, nil)
	app := newStoreApp(uuid.New(), storeID, "staff")
	app.Get("/stores/:store_id/transactions", h.ListTransactions)

	resp, _ := doRequest(t, app, http.MethodGet, "/stores/"+storeID.String()+
		"/transactions?customer_id="+customerID+"&start_date=2025-01-01&end_date=2025-01-31&min_amount=1000&payment_method=CASH", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, customerID, flow.filter.CustomerID)
	assert.Equal(t, "2025-01-01", flow.filter.StartDate)
	assert.Equal(t, "2025-01-31", flow.filter.EndDate)
	require.NotNil(t, flow.filter.MinAmount)
	assert.InDelta(t, 1000, *flow.filter.MinAmount, 0.001)
	assert.Nil(t, flow.filter.MaxAmount)
	assert.Equal(t, transactionPages.defaultSize, flow.page.Size)

	resp, env := doRequest(t, app, http.MethodGet, "/stores/"+storeID.String()+"/transactions?max_amount=lots", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "fail", env.Status)
}

func TestTransactionHandler_Export(t *testing.T) {
	storeID := uuid.New()
	flow := &fakeTransactionFlow{}
	h := NewTransactionHandler(flow, nil)
	app := newStoreApp(uuid.New(), storeID, "owner")
	app.Get("/stores/:store_id/transactions/export", h.ExportTransactions)

	req := httptest.NewRequest(http.MethodGet, "/stores/"+storeID.String()+"/transactions/export?q=abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, `attachment; filename="transactions_20250101.xlsx"`, resp.Header.Get(fiber.HeaderContentDisposition))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), body)
	assert.Equal(t, "abc", flow.filter.Query)
}
