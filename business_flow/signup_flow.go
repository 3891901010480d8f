package businessflow

import (
	"context"
	"net/http"
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

// SignupFlow registers new users
type SignupFlow interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	userRepo      repository.UserRepository
	storeRepo     repository.StoreRepository
	userStoreRepo repository.UserStoreRepository
	storage       services.StorageService
	txRunner      repository.TxRunner
	bcryptCost    int
	logger        *zap.Logger
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	userStoreRepo repository.UserStoreRepository,
	storage services.StorageService,
	txRunner repository.TxRunner,
	bcryptCost int,
	logger *zap.Logger,
) SignupFlow {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &SignupFlowImpl{
		userRepo:      userRepo,
		storeRepo:     storeRepo,
		userStoreRepo: userStoreRepo,
		storage:       storage,
		txRunner:      txRunner,
		bcryptCost:    bcryptCost,
		logger:        logger,
	}
}

// Signup creates the user together with a new store (owner) or a membership in
// an existing store (staff). Everything is written in one transaction.
func (sf *SignupFlowImpl) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserResponse, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = utils.RoleOwner
	}

	// Validate business rules
	var storeID uuid.UUID
	switch role {
	case utils.RoleOwner:
		if req.StoreInfo == nil {
			return nil, badRequest("STORE_INFO_REQUIRED", "Store information is required for owner role", ErrStoreInfoRequired)
		}
	case utils.RoleStaff:
		if req.StoreID == "" {
			return nil, badRequest("STORE_ID_REQUIRED", "Store ID is required for staff role", ErrStoreIDRequired)
		}
		id, err := uuid.Parse(req.StoreID)
		if err != nil {
			return nil, badRequest("INVALID_STORE_ID", "Invalid store ID", err)
		}
		storeID = id
	default:
		return nil, badRequest("INVALID_ROLE", "Role must be either 'owner' or 'staff'", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), sf.bcryptCost)
	if err != nil {
		return nil, internal("PASSWORD_HASH_FAILED", "Failed to create user", err)
	}

	var (
		user       *models.User
		membership *models.UserStore
	)
	err = sf.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := sf.userRepo.ByEmail(txCtx, req.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("EMAIL_ALREADY_EXISTS", "Email is already in use.", ErrEmailAlreadyExists)
		}

		if role == utils.RoleStaff {
			store, err := sf.storeRepo.ByID(txCtx, storeID)
			if err != nil {
				return err
			}
			if store == nil {
				return NewBusinessErrorf("STORE_NOT_FOUND", "Store with ID %s does not exist", ErrStoreNotFound, storeID).WithStatus(http.StatusBadRequest)
			}
		} else {
			store := &models.Store{
				Name:        strings.TrimSpace(req.StoreInfo.Name),
				Description: req.StoreInfo.Description,
				ImageURL:    req.StoreInfo.ImageURL,
			}
			if err := sf.storeRepo.Save(txCtx, store); err != nil {
				return err
			}
			storeID = store.ID
		}

		user = &models.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			DisplayName:  strings.TrimSpace(req.DisplayName),
			Phone:        req.Phone,
			ImageURL:     req.ImageURL,
			Active:       utils.ToPtr(true),
		}
		if err := sf.userRepo.Save(txCtx, user); err != nil {
			return err
		}

		membership = &models.UserStore{UserID: user.ID, StoreID: storeID, Role: role}
		return sf.userStoreRepo.Save(txCtx, membership)
	})
	if err != nil {
		if _, ok := AsBusinessError(err); ok {
			return nil, err
		}
		logWith(ctx, sf.logger).Error("Signup failed", zap.String("email", req.Email), zap.Error(err))
		return nil, internal("SIGNUP_FAILED", "Failed to create user", err)
	}

	markPermanent(ctx, sf.storage, sf.logger, req.ImageURL, storeInfoImage(req))

	resp := ToUserResponse(user, []*models.UserStore{membership})
	return &resp, nil
}

func storeInfoImage(req *dto.SignupRequest) string {
	if req.StoreInfo == nil {
		return ""
	}
	return req.StoreInfo.ImageURL
}
