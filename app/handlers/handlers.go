// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

// fieldErrors is a client input problem keyed by field. It renders as a 422 fail envelope.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+v)
	}
	slices.Sort(parts)
	return strings.Join(parts, "; ")
}

// pageBounds are the paging limits of one resource
type pageBounds struct {
	defaultSize int
	maxSize     int
	sortKeys    []string
}

var (
	productPages = pageBounds{
		defaultSize: businessflow.DefaultProductPageSize,
		maxSize:     businessflow.MaxProductPageSize,
		sortKeys:    []string{"name", "sellingPrice", "purchasePrice", "stockQuantity", "createdAt", "updatedAt"},
	}
	catalogPages     = pageBounds{defaultSize: businessflow.DefaultProductPageSize, maxSize: businessflow.MaxProductPageSize}
	peoplePages      = pageBounds{defaultSize: businessflow.DefaultPeoplePageSize, maxSize: businessflow.MaxPeoplePageSize}
	transactionPages = pageBounds{defaultSize: businessflow.DefaultTransactionPageSize, maxSize: businessflow.MaxTransactionPageSize}
)

// base carries what every handler needs
type base struct {
	validator *validator.Validate
	logger    *zap.Logger
}

func newBase(logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{validator: newValidator(), logger: logger}
}

// newValidator reports fields by their json names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode binds the JSON body into req and validates it
func (b base) decode(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return fieldErrors{"body": "Invalid request body"}
	}
	return b.validator.Struct(req)
}

// handleError translates err into the JSend envelope
func (b base) handleError(c fiber.Ctx, ctx context.Context, err error) error {
	var fe fieldErrors
	if errors.As(err, &fe) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.Fail(map[string]string(fe)))
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, v := range verrs {
			fields[fieldPath(v)] = getValidationErrorMessage(v)
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.Fail(fields))
	}

	log := b.logger.With(utils.RequestFields(ctx)...)

	if be, ok := businessflow.AsBusinessError(err); ok {
		status := be.Status
		if status == 0 {
			status = fiber.StatusBadRequest
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("Request failed", zap.String("code", be.Code), zap.Error(err))
		} else {
			log.Info("Request rejected", zap.String("code", be.Code), zap.Int("status", status), zap.String("message", be.Message))
		}
		return c.Status(status).JSON(dto.Error(be.Message, status, nil))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(dto.Error(fiberErr.Message, fiberErr.Code, nil))
	}

	log.Error("Unexpected error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Error("Internal server error", fiber.StatusInternalServerError, nil))
}

// fieldPath drops the top level struct name from the validator namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return err.Field() + " must be a valid UUID"
	case "min":
		if isCollection(err.Kind()) {
			return err.Field() + " must contain at least " + err.Param() + " items"
		}
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		if isCollection(err.Kind()) {
			return err.Field() + " must contain at most " + err.Param() + " items"
		}
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

// createRequestContext creates a context with a timeout and request-scoped values
func createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, requestid.FromContext(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)

	return ctx, cancel
}

// parsePage reads page, size, sort_by and sort_order
func parsePage(c fiber.Ctx, bounds pageBounds) (dto.PageQuery, error) {
	problems := fieldErrors{}

	page, err := queryInt(c, "page", 1)
	if err != nil || page < 1 {
		problems["page"] = "page must be an integer greater than or equal to 1"
	}
	size, err := queryInt(c, "size", bounds.defaultSize)
	if err != nil || size < 1 || size > bounds.maxSize {
		problems["size"] = fmt.Sprintf("size must be an integer between 1 and %d", bounds.maxSize)
	}

	sortBy := c.Query("sort_by")
	if sortBy != "" && len(bounds.sortKeys) > 0 && !slices.Contains(bounds.sortKeys, sortBy) {
		problems["sort_by"] = "sort_by must be one of: " + strings.Join(bounds.sortKeys, " ")
	}
	sortOrder := strings.ToLower(c.Query("sort_order", "desc"))
	if sortOrder != "asc" && sortOrder != "desc" {
		problems["sort_order"] = "sort_order must be one of: asc desc"
	}

	if len(problems) > 0 {
		return dto.PageQuery{}, problems
	}
	return dto.PageQuery{Page: page, Size: size, SortBy: sortBy, SortOrder: sortOrder}, nil
}

func queryInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func queryFloat(c fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fieldErrors{key: key + " must be a number"}
	}
	return &v, nil
}

// pathUUID parses a uuid path parameter
func pathUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fieldErrors{name: name + " must be a valid UUID"}
	}
	return id, nil
}

// currentUserID is the authenticated user set by the auth middleware
func currentUserID(c fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(utils.LocalUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	return id, nil
}

// currentStore is the store resolved by the store access middleware
func currentStore(c fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(utils.LocalStoreID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Store access was not verified")
	}
	return id, nil
}

// currentRole is the caller's role in the current store
func currentRole(c fiber.Ctx) string {
	if m, ok := c.Locals(utils.LocalMembership).(*models.UserStore); ok && m != nil {
		return m.Role
	}
	return ""
}
