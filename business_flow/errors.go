package businessflow

import (
	"errors"
	"fmt"
	"net/http"
)

// Business flow error constants
var (
	// User and membership errors
	ErrUserNotFound          = errors.New("user not found")
	ErrAccountInactive       = errors.New("account is inactive")
	ErrIncorrectPassword     = errors.New("incorrect password")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrStoreInfoRequired     = errors.New("store info is required for owner signup")
	ErrStoreIDRequired       = errors.New("store id is required for staff signup")
	ErrStoreAccessDenied     = errors.New("user does not have permission to access this store")
	ErrOwnerRequired         = errors.New("only store owners can perform this action")
	ErrCaptchaRequired       = errors.New("captcha is required")
	ErrCaptchaInvalid        = errors.New("captcha verification failed")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrStaffAlreadyMember    = errors.New("user is already a member of this store")
	ErrStaffNotFound         = errors.New("staff member not found")
	ErrStaffNotInStore       = errors.New("staff member not found in this store")
	ErrCannotModifyOwner     = errors.New("store owners cannot be modified through staff management")
	ErrListOtherUsersStores  = errors.New("users may only list their own stores")
	ErrStoreNotFound         = errors.New("store not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductNotInStore     = errors.New("product not found in the specified store")
	ErrCannotChangeStore     = errors.New("cannot change product store")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryNameExists    = errors.New("category name already exists in this store")
	ErrCategoryInUse         = errors.New("category is being used by products")
	ErrBrandNotFound         = errors.New("brand not found")
	ErrBrandNameExists       = errors.New("brand name already exists in this store")
	ErrBrandInUse            = errors.New("brand is being used by products")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerNotInStore    = errors.New("customer not found in this store")
	ErrInvalidDOB            = errors.New("invalid date format for dob")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotInStore = errors.New("transaction not found in this store")
	ErrTransactionProduct    = errors.New("transaction references an unknown product")
	ErrInvalidDate           = errors.New("invalid date")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")

	// Image errors
	ErrImageRequired    = errors.New("image file is required")
	ErrImageTooLarge    = errors.New("image exceeds the maximum size")
	ErrNotAnImage       = errors.New("file is not an image")
	ErrImageNotFound    = errors.New("image not found")
	ErrPreviewNotViable = errors.New("preview is not available for this image")
)

// BusinessError is the error type returned by flows. Status, when set, is the
// HTTP status the handler layer responds with.
type BusinessError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// WithStatus sets the HTTP status and returns the same error
func (e *BusinessError) WithStatus(status int) *BusinessError {
	e.Status = status
	return e
}

func notFound(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusNotFound)
}

func badRequest(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusBadRequest)
}

func forbidden(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusForbidden)
}

func conflict(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusConflict)
}

func unauthorized(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusUnauthorized)
}

func unprocessable(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusUnprocessableEntity)
}

// internal wraps an unexpected failure. The message is safe to show to clients.
func internal(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, err).WithStatus(http.StatusInternalServerError)
}

// AsBusinessError unwraps err to a *BusinessError if there is one in the chain
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
