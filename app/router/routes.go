// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/handlers"
	"github.com/cherriedy/ban-hang-so-api/app/middleware"
	"github.com/cherriedy/ban-hang-so-api/config"
	_ "github.com/cherriedy/ban-hang-so-api/docs"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Auth        *handlers.AuthHandler
	Store       *handlers.StoreHandler
	Product     *handlers.ProductHandler
	Category    *handlers.CategoryHandler
	Brand       *handlers.BrandHandler
	Customer    *handlers.CustomerHandler
	Staff       *handlers.StaffHandler
	Transaction *handlers.TransactionHandler
	Sale        *handlers.SaleHandler
	Image       *handlers.ImageHandler
	Health      *handlers.HealthHandler
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	auth     *middleware.AuthMiddleware
	logger   *zap.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, auth *middleware.AuthMiddleware, logger *zap.Logger) Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &FiberRouter{
		cfg:      cfg,
		handlers: h,
		auth:     auth,
		logger:   logger,
	}

	r.app = fiber.New(fiber.Config{
		AppName:      "Ban Hang So API",
		ServerHeader: "ban-hang-so-api",
		ErrorHandler: r.errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	h := r.handlers
	r.app.Get("/", h.Health.Root)

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	// no rate limiting
	api.Get("/health", h.Health.Health)
	api.Get("/swagger.json", r.serveSwaggerJSON)

	api.Use(r.rateLimiter(r.cfg.Security.GlobalRateLimit, "/api/v1/images/"))

	auth := api.Group("/auth")
	auth.Use(r.rateLimiter(r.cfg.Security.AuthRateLimit, ""))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Get("/captcha", h.Auth.Captcha)
	auth.Post("/logout", r.auth.Authenticate(), h.Auth.Logout)
	auth.Get("/me", r.auth.Authenticate(), h.Auth.Me)

	// images are public by URL; writes need a user
	api.Post("/images", r.auth.Authenticate(), h.Image.UploadImage)
	api.Delete("/images", r.auth.Authenticate(), h.Image.DeleteImage)
	api.Get("/images/*", h.Image.GetImage)

	stores := api.Group("/stores", r.auth.Authenticate())
	stores.Get("/user/:user_id", h.Store.ListUserStores)

	// Store access is attached per route: a group level Use on "/:store_id"
	// would also match "/user/:user_id".
	member := r.auth.RequireStoreAccess(false)
	owner := r.auth.RequireStoreAccess(true)

	store := stores.Group("/:store_id")
	store.Get("/", member, h.Store.GetStore)
	store.Put("/", owner, h.Store.UpdateStore)

	store.Get("/products", member, h.Product.ListProducts)
	store.Get("/products/search", member, h.Product.SearchProducts)
	store.Get("/products/:product_id", member, h.Product.GetProduct)
	store.Post("/products", member, h.Product.CreateProduct)
	store.Put("/products/:product_id", member, h.Product.UpdateProduct)
	store.Delete("/products/:product_id", member, h.Product.DeleteProduct)

	store.Get("/categories", member, h.Category.ListCategories)
	store.Get("/categories/search", member, h.Category.SearchCategories)
	store.Get("/categories/:category_id", member, h.Category.GetCategory)
	store.Post("/categories", member, h.Category.CreateCategory)
	store.Put("/categories/:category_id", member, h.Category.UpdateCategory)
	store.Delete("/categories/:category_id", member, h.Category.DeleteCategory)

	store.Get("/brands", member, h.Brand.ListBrands)
	store.Get("/brands/search", member, h.Brand.SearchBrands)
	store.Get("/brands/:brand_id", member, h.Brand.GetBrand)
	store.Post("/brands", member, h.Brand.CreateBrand)
	store.Put("/brands/:brand_id", member, h.Brand.UpdateBrand)
	store.Delete("/brands/:brand_id", member, h.Brand.DeleteBrand)

	store.Get("/customers", owner, h.Customer.ListCustomers)
	store.Get("/customers/search", owner, h.Customer.SearchCustomers)
	store.Get("/customers/:customer_id", owner, h.Customer.GetCustomer)
	store.Post("/customers", owner, h.Customer.CreateCustomer)
	store.Put("/customers/:customer_id", owner, h.Customer.UpdateCustomer)
	store.Delete("/customers/:customer_id", owner, h.Customer.DeleteCustomer)

	store.Get("/staffs", owner, h.Staff.ListStaff)
	store.Get("/staffs/search", owner, h.Staff.SearchStaff)
	store.Get("/staffs/:staff_id", owner, h.Staff.GetStaff)
	store.Post("/staffs", owner, h.Staff.CreateStaff)
	store.Put("/staffs/:staff_id", owner, h.Staff.UpdateStaff)
	store.Delete("/staffs/:staff_id", owner, h.Staff.DeleteStaff)

	store.Get("/transactions", member, h.Transaction.ListTransactions)
	store.Get("/transactions/search", member, h.Transaction.SearchTransactions)
	store.Get("/transactions/export", owner, h.Transaction.ExportTransactions)
	store.Get("/transactions/:transaction_id", member, h.Transaction.GetTransaction)
	store.Post("/transactions", member, h.Transaction.CreateTransaction)

	store.Get("/sales/products", member, h.Sale.ListSaleProducts)
	store.Get("/sales/products/search", member, h.Sale.SearchSaleProducts)
	store.Get("/reports/summary", member, h.Sale.Summary)

	r.app.Use(r.notFoundHandler)

	r.logger.Info("Routes configured")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: fiber.HeaderXRequestID,
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("Panic recovered",
				zap.String("request_id", requestid.FromContext(c)),
				zap.Any("error", e),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	origins := r.cfg.Security.AllowedOrigins
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodHead, fiber.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		// wildcard origins cannot be combined with credentials
		AllowCredentials: r.cfg.Security.AllowCredentials && !slices.Contains(origins, "*"),
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/api/v1/images/")
			},
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"user_agent":"${ua}"}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/api/v1/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}
}

// rateLimiter limits requests per IP. Paths under skipPrefix are not limited.
func (r *FiberRouter) rateLimiter(limit int, skipPrefix string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(
				dto.Error("Too many requests. Please try again later.", fiber.StatusTooManyRequests, nil))
		},
		Next: func(c fiber.Ctx) bool {
			return skipPrefix != "" && strings.HasPrefix(c.Path(), skipPrefix)
		},
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("Starting server", zap.String("address", address))
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// serveSwaggerJSON serves the OpenAPI document registered by the docs package
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		r.logger.Error("Failed to load swagger document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			dto.Error("Failed to load Swagger documentation", fiber.StatusInternalServerError, nil))
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(
		dto.Error("The requested resource was not found", fiber.StatusNotFound, fiber.Map{
			"path":   c.Path(),
			"method": c.Method(),
		}))
}

// errorHandler renders errors that escape the handlers
func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	log := r.logger.With(
		zap.String("request_id", requestid.FromContext(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", code),
		zap.Error(err),
	)
	if code >= fiber.StatusInternalServerError {
		log.Error("Unhandled error")
		message = "An internal server error occurred"
	} else {
		log.Warn("Request error")
	}

	return c.Status(code).JSON(dto.Error(message, code, nil))
}
