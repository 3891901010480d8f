package businessflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	defaultPasswordLength = 12
)

// StaffFlow manages the staff accounts of a store
type StaffFlow interface {
	CreateStaff(ctx context.Context, storeID uuid.UUID, req *dto.CreateStaffRequest) (*dto.CreateStaffResponse, error)
	ListStaff(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.StaffResponse], error)
	SearchStaff(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.StaffResponse], error)
	GetStaff(ctx context.Context, storeID, staffID uuid.UUID) (*dto.StaffResponse, error)
	UpdateStaff(ctx context.Context, storeID, staffID uuid.UUID, req *dto.UpdateStaffRequest) (*dto.StaffResponse, error)
	DeleteStaff(ctx context.Context, storeID, staffID uuid.UUID) (*dto.MessageResponse, error)
}

// StaffFlowImpl implements the staff business flow
type StaffFlowImpl struct {
	userRepo        repository.UserRepository
	storeRepo       repository.StoreRepository
	userStoreRepo   repository.UserStoreRepository
	notificationSvc services.NotificationService
	storage         services.StorageService
	txRunner        repository.TxRunner
	passwordLength  int
	bcryptCost      int
	logger          *zap.Logger
}

// NewStaffFlow creates a new staff flow instance
func NewStaffFlow(
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	userStoreRepo repository.UserStoreRepository,
	notificationSvc services.NotificationService,
	storage services.StorageService,
	txRunner repository.TxRunner,
	passwordLength int,
	bcryptCost int,
	logger *zap.Logger,
) StaffFlow {
	if passwordLength <= 0 {
		passwordLength = defaultPasswordLength
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &StaffFlowImpl{
		userRepo:        userRepo,
		storeRepo:       storeRepo,
		userStoreRepo:   userStoreRepo,
		notificationSvc: notificationSvc,
		storage:         storage,
		txRunner:        txRunner,
		passwordLength:  passwordLength,
		bcryptCost:      bcryptCost,
		logger:          logger,
	}
}

// GeneratePassword returns a random password drawn from letters, digits and !@#$%^&*
func GeneratePassword(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func (sf *StaffFlowImpl) CreateStaff(ctx context.Context, storeID uuid.UUID, req *dto.CreateStaffRequest) (*dto.CreateStaffResponse, error) {
	store, err := sf.storeRepo.ByID(ctx, storeID)
	if err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}
	if store == nil {
		return nil, notFound("STORE_NOT_FOUND", "Store not found", ErrStoreNotFound)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := sf.userRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}
	if existing != nil {
		return sf.attachExistingUser(ctx, existing, storeID)
	}

	password, err := GeneratePassword(sf.passwordLength)
	if err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), sf.bcryptCost)
	if err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Phone:        req.Phone,
		ImageURL:     req.ImageURL,
		Active:       utils.ToPtr(true),
	}
	err = sf.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := sf.userRepo.Save(txCtx, user); err != nil {
			return err
		}
		return sf.userStoreRepo.Save(txCtx, &models.UserStore{UserID: user.ID, StoreID: storeID, Role: utils.RoleStaff})
	})
	if err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}
	markPermanent(ctx, sf.storage, sf.logger, user.ImageURL)

	// The account exists even when the email cannot be delivered
	if sf.notificationSvc != nil {
		creds := services.StaffCredentials{
			Email:       user.Email,
			DisplayName: user.DisplayName,
			StoreName:   store.Name,
			Password:    password,
		}
		if err := sf.notificationSvc.SendStaffCredentials(ctx, creds); err != nil {
			logWith(ctx, sf.logger).Warn("Failed to send staff credentials email",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	return &dto.CreateStaffResponse{
		Email:   user.Email,
		Message: "Staff account created successfully. Credentials have been sent to the staff member's email",
	}, nil
}

func (sf *StaffFlowImpl) attachExistingUser(ctx context.Context, user *models.User, storeID uuid.UUID) (*dto.CreateStaffResponse, error) {
	membership, err := sf.userStoreRepo.ByUserAndStore(ctx, user.ID, storeID)
	if err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}
	if membership != nil {
		return nil, conflict("STAFF_ALREADY_MEMBER", "User is already a member of this store", ErrStaffAlreadyMember)
	}

	if err := sf.userStoreRepo.Save(ctx, &models.UserStore{UserID: user.ID, StoreID: storeID, Role: utils.RoleStaff}); err != nil {
		return nil, internal("CREATE_STAFF_FAILED", "Failed to create staff account", err)
	}
	return &dto.CreateStaffResponse{
		Email:   user.Email,
		Message: "Existing user has been added to the store as staff",
	}, nil
}

func staffScore(query string, m *models.UserStore) float64 {
	if m.User == nil {
		return 0
	}
	return TieredScore(query, []TieredField{
		{Value: m.User.Email, Exact: 15, Prefix: 12, Substring: 10},
		{Value: m.User.DisplayName, Exact: 12, Prefix: 10, Substring: 8},
		flat(m.User.Phone, 5),
	})
}

func (sf *StaffFlowImpl) staffMembers(ctx context.Context, storeID uuid.UUID) ([]*models.UserStore, error) {
	role := utils.RoleStaff
	rows, err := sf.userStoreRepo.ListWithUsers(ctx, storeID, &role)
	if err != nil {
		return nil, err
	}
	members := rows[:0]
	for _, m := range rows {
		if m.User != nil {
			members = append(members, m)
		}
	}
	return members, nil
}

func (sf *StaffFlowImpl) ListStaff(ctx context.Context, storeID uuid.UUID, page dto.PageQuery) (*dto.PaginationResponse[dto.StaffResponse], error) {
	members, err := sf.staffMembers(ctx, storeID)
	if err != nil {
		return nil, internal("LIST_STAFF_FAILED", "Failed to retrieve staff list", err)
	}
	return staffPage(members, page), nil
}

func (sf *StaffFlowImpl) SearchStaff(ctx context.Context, storeID uuid.UUID, query string, page dto.PageQuery) (*dto.PaginationResponse[dto.StaffResponse], error) {
	members, err := sf.staffMembers(ctx, storeID)
	if err != nil {
		return nil, internal("SEARCH_STAFF_FAILED", "Failed to search staff", err)
	}
	if strings.TrimSpace(query) == "" {
		return staffPage(members, page), nil
	}

	ranked := rankByScore(members,
		func(m *models.UserStore) string { return m.UserID.String() },
		func(m *models.UserStore) float64 { return staffScore(query, m) },
		nil,
	)
	return staffPage(ranked, page), nil
}

func staffPage(members []*models.UserStore, page dto.PageQuery) *dto.PaginationResponse[dto.StaffResponse] {
	rows := pageOf(members, page.Offset(), page.Limit())
	items := make([]dto.StaffResponse, 0, len(rows))
	for _, m := range rows {
		items = append(items, ToStaffResponse(m))
	}
	resp := dto.NewPagination(items, int64(len(members)), max(page.Page, 1), page.Size)
	return &resp
}

// memberOf loads a user and their membership. staffOnly rejects owners.
func (sf *StaffFlowImpl) memberOf(ctx context.Context, storeID, userID uuid.UUID, staffOnly bool) (*models.UserStore, error) {
	user, err := sf.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, internal("GET_STAFF_FAILED", "Failed to retrieve staff member", err)
	}
	if user == nil {
		return nil, notFound("STAFF_NOT_FOUND", "Staff member not found", ErrStaffNotFound)
	}

	membership, err := sf.userStoreRepo.ByUserAndStore(ctx, userID, storeID)
	if err != nil {
		return nil, internal("GET_STAFF_FAILED", "Failed to retrieve staff member", err)
	}
	if membership == nil || (staffOnly && membership.Role != utils.RoleStaff) {
		return nil, notFound("STAFF_NOT_IN_STORE", "Staff member not found in this store", ErrStaffNotInStore)
	}
	membership.User = user
	return membership, nil
}

// GetStaff returns a staff or owner member of the store
func (sf *StaffFlowImpl) GetStaff(ctx context.Context, storeID, staffID uuid.UUID) (*dto.StaffResponse, error) {
	membership, err := sf.memberOf(ctx, storeID, staffID, false)
	if err != nil {
		return nil, err
	}
	resp := ToStaffResponse(membership)
	return &resp, nil
}

// UpdateStaff changes profile fields of a staff member. Owners cannot be edited here.
func (sf *StaffFlowImpl) UpdateStaff(ctx context.Context, storeID, staffID uuid.UUID, req *dto.UpdateStaffRequest) (*dto.StaffResponse, error) {
	membership, err := sf.memberOf(ctx, storeID, staffID, true)
	if err != nil {
		return nil, err
	}
	user := membership.User

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	imageChanged := req.ImageURL != nil && *req.ImageURL != user.ImageURL
	if req.ImageURL != nil {
		user.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		user.Active = utils.ToPtr(*req.Active)
	}

	if err := sf.userRepo.Update(ctx, user); err != nil {
		return nil, internal("UPDATE_STAFF_FAILED", "Failed to update staff member", err)
	}
	if imageChanged {
		markPermanent(ctx, sf.storage, sf.logger, user.ImageURL)
	}

	resp := ToStaffResponse(membership)
	return &resp, nil
}

// DeleteStaff removes the staff membership. A user left without any store is deleted.
func (sf *StaffFlowImpl) DeleteStaff(ctx context.Context, storeID, staffID uuid.UUID) (*dto.MessageResponse, error) {
	if _, err := sf.memberOf(ctx, storeID, staffID, true); err != nil {
		return nil, err
	}

	err := sf.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := sf.userStoreRepo.DeleteByUserAndStore(txCtx, staffID, storeID); err != nil {
			return err
		}
		remaining, err := sf.userStoreRepo.Count(txCtx, models.UserStoreFilter{UserID: &staffID})
		if err != nil {
			return err
		}
		if remaining == 0 {
			return sf.userRepo.Delete(txCtx, staffID)
		}
		return nil
	})
	if err != nil {
		return nil, internal("DELETE_STAFF_FAILED", "Failed to delete staff member", err)
	}
	return &dto.MessageResponse{Message: "Staff member removed successfully"}, nil
}
