package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Customer and staff paging defaults
const (
	DefaultPeoplePageSize = 10
	MaxPeoplePageSize     = 100
)

// CustomerFlow handles the customers of a store
type CustomerFlow interface {
	ListCustomers(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.CustomerResponse], error)
	SearchCustomers(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.CustomerResponse], error)
	GetCustomer(ctx context.Context, storeID, customerID uuid.UUID) (*dto.CustomerResponse, error)
	CreateCustomer(ctx context.Context, storeID uuid.UUID, req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	UpdateCustomer(ctx context.Context, storeID, customerID uuid.UUID, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, storeID, customerID uuid.UUID) (*dto.MessageResponse, error)
}

// CustomerFlowImpl implements the customer business flow
type CustomerFlowImpl struct {
	customerRepo repository.CustomerRepository
	storage      services.StorageService
	logger       *zap.Logger
}

// NewCustomerFlow creates a new customer flow instance
func NewCustomerFlow(customerRepo repository.CustomerRepository, storage services.StorageService, logger *zap.Logger) CustomerFlow {
	return &CustomerFlowImpl{
		customerRepo: customerRepo,
		storage:      storage,
		logger:       logger,
	}
}

func invalidDOB(err error) *BusinessError {
	return unprocessable("INVALID_DOB", "Invalid date format for dob. Expected YYYY-MM-DD", err)
}

// normalizeOptionalDOB maps "" to nil and anything else to YYYY-MM-DD
func normalizeOptionalDOB(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	dob, err := NormalizeDOB(*raw)
	if err != nil {
		return nil, invalidDOB(err)
	}
	return &dob, nil
}

func customerScore(query string, c *models.Customer) float64 {
	return TieredScore(query, []TieredField{
		{Value: c.Name, Exact: 15, Prefix: 12, Substring: 10},
		flat(c.Phone, 8),
		flat(c.Email, 5),
		flat(c.Address, 3),
	})
}

func (cf *CustomerFlowImpl) ListCustomers(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.CustomerResponse], error) {
	filter := models.CustomerFilter{StoreID: &storeID}
	total, err := cf.customerRepo.Count(ctx, filter)
	if err != nil {
		return nil, internal("LIST_CUSTOMERS_FAILED", "Failed to retrieve customers list", err)
	}
	rows, err := cf.customerRepo.ByFilter(ctx, filter, "created_at DESC", page.Limit(), page.Offset())
	if err != nil {
		return nil, internal("LIST_CUSTOMERS_FAILED", "Failed to retrieve customers list", err)
	}

	items := make([]dto.CustomerResponse, 0, len(rows))
	for _, c := range rows {
		items = append(items, ToCustomerResponse(c))
	}
	resp := dto.NewPagination(items, total, max(page.Page, 1), page.Size)
	return &resp, nil
}

func (cf *CustomerFlowImpl) SearchCustomers(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.CustomerResponse], error) {
	if strings.TrimSpace(query) == "" {
		return cf.ListCustomers(ctx, storeID, page)
	}

	rows, err := cf.customerRepo.ByFilter(ctx, models.CustomerFilter{StoreID: &storeID}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, internal("SEARCH_CUSTOMERS_FAILED", "Failed to search customers", err)
	}
	ranked := rankByScore(rows,
		func(c *models.Customer) string { return c.ID.String() },
		func(c *models.Customer) float64 { return customerScore(query, c) },
		nil,
	)

	pageRows := pageOf(ranked, page.Offset(), page.Limit())
	items := make([]dto.CustomerResponse, 0, len(pageRows))
	for _, c := range pageRows {
		items = append(items, ToCustomerResponse(c))
	}
	resp := dto.NewPagination(items, int64(len(ranked)), max(page.Page, 1), page.Size)
	return &resp, nil
}

func (cf *CustomerFlowImpl) customerInStore(ctx context.Context, storeID, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := cf.customerRepo.ByID(ctx, customerID)
	if err != nil {
		return nil, internal("GET_CUSTOMER_FAILED", "Failed to retrieve customer", err)
	}
	if customer == nil {
		return nil, notFound("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}
	if customer.StoreID != storeID {
		return nil, notFound("CUSTOMER_NOT_IN_STORE", "Customer not found in this store", ErrCustomerNotInStore)
	}
	return customer, nil
}

func (cf *CustomerFlowImpl) GetCustomer(ctx context.Context, storeID, customerID uuid.UUID) (*dto.CustomerResponse, error) {
	customer, err := cf.customerInStore(ctx, storeID, customerID)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (cf *CustomerFlowImpl) CreateCustomer(ctx context.Context, storeID uuid.UUID, req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	dob, err := normalizeOptionalDOB(req.DOB)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	imageURL := utils.DerefString(req.ImageURL)
	uploaded := imageURL != ""
	if !uploaded {
		imageURL = utils.InitialsAvatarURL(name)
	}

	customer := &models.Customer{
		StoreID:  storeID,
		Name:     name,
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Address:  req.Address,
		DOB:      dob,
		ImageURL: imageURL,
	}
	if err := cf.customerRepo.Save(ctx, customer); err != nil {
		return nil, internal("CREATE_CUSTOMER_FAILED", "Failed to create customer", err)
	}
	if uploaded {
		markPermanent(ctx, cf.storage, cf.logger, imageURL)
	}

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (cf *CustomerFlowImpl) UpdateCustomer(ctx context.Context, storeID, customerID uuid.UUID, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	if req.Email != nil && *req.Email != "" {
		if err := fieldValidator.Var(*req.Email, "email"); err != nil {
			return nil, unprocessable("INVALID_EMAIL", "Invalid email address", errors.New("email must be a valid email address"))
		}
	}

	customer, err := cf.customerInStore(ctx, storeID, customerID)
	if err != nil {
		return nil, err
	}

	if req.DOB != nil {
		dob, err := normalizeOptionalDOB(req.DOB)
		if err != nil {
			return nil, err
		}
		customer.DOB = dob
	}
	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		customer.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		customer.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	imageChanged := req.ImageURL != nil && *req.ImageURL != customer.ImageURL
	if req.ImageURL != nil {
		customer.ImageURL = *req.ImageURL
	}

	if err := cf.customerRepo.Update(ctx, customer); err != nil {
		return nil, internal("UPDATE_CUSTOMER_FAILED", "Failed to update customer", err)
	}
	if imageChanged {
		markPermanent(ctx, cf.storage, cf.logger, customer.ImageURL)
	}

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (cf *CustomerFlowImpl) DeleteCustomer(ctx context.Context, storeID, customerID uuid.UUID) (*dto.MessageResponse, error) {
	if _, err := cf.customerInStore(ctx, storeID, customerID); err != nil {
		return nil, err
	}
	if err := cf.customerRepo.Delete(ctx, customerID); err != nil {
		return nil, internal("DELETE_CUSTOMER_FAILED", "Failed to delete customer", err)
	}
	return &dto.MessageResponse{Message: "Customer deleted successfully"}, nil
}
