// Package main provides the entry point for the Ban Hang So point-of-sale API
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cherriedy/ban-hang-so-api/app/handlers"
	"github.com/cherriedy/ban-hang-so-api/app/middleware"
	"github.com/cherriedy/ban-hang-so-api/app/router"
	"github.com/cherriedy/ban-hang-so-api/app/scheduler"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/config"
	_ "github.com/cherriedy/ban-hang-so-api/docs"
	"github.com/cherriedy/ban-hang-so-api/migrations"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
	closers   []func() error
}

func main() {
	app := cli.NewApp()
	app.Name = "ban-hang-so-api"
	app.Usage = "multi-store point-of-sale REST API"
	app.Commands = []cli.Command{serveCommand, migrateCommand, cleanupImagesCommand}
	app.Action = serve

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ban-hang-so-api: %v\n", err)
		os.Exit(1)
	}
}

var serveCommand = cli.Command{
	Name:  "serve",
	Usage: "run the HTTP server (default)",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "migrate",
			Usage: "apply pending migrations before serving",
		},
	},
	Action: serve,
}

var migrateCommand = cli.Command{
	Name:  "migrate",
	Usage: "apply or roll back database migrations",
	Subcommands: []cli.Command{
		{
			Name:   "up",
			Usage:  "apply all pending migrations",
			Action: func(c *cli.Context) error { return runMigrations(migrations.Up) },
		},
		{
			Name:   "down",
			Usage:  "roll back every migration",
			Action: func(c *cli.Context) error { return runMigrations(migrations.Down) },
		},
	},
}

var cleanupImagesCommand = cli.Command{
	Name:  "cleanup-images",
	Usage: "delete temporary uploads that were never attached to an entity",
	Flags: []cli.Flag{
		cli.DurationFlag{
			Name:  "max-age",
			Value: 0,
			Usage: "minimum age of a temporary upload before it is removed (defaults to STORAGE_TEMPORARY_MAX_AGE)",
		},
	},
	Action: cleanupImages,
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.ProductionConfig, *zap.Logger, error) {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)

	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Ban Hang So API",
		zap.String("version", cfg.Deployment.Version),
		zap.String("environment", cfg.Deployment.Environment),
		zap.String("commit", cfg.Deployment.CommitHash))

	if c.Bool("migrate") {
		if err := migrations.Run(cfg.Database.URL(), migrations.Up); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("Database migrations applied")
	}

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		return err
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Server starting", zap.String("address", address))
		serverErr <- app.router.Start(address)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// stop accepting requests first so no sale is recorded after the worker drains
	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	app.shutdown()

	logger.Info("Server stopped")
	return nil
}

func (a *Application) shutdown() {
	for i := len(a.stopFuncs) - 1; i >= 0; i-- {
		a.stopFuncs[i]()
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
}

func runMigrations(dir migrations.Direction) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := migrations.Run(cfg.Database.URL(), dir); err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	logger.Info("Migrations finished", zap.String("direction", string(dir)))
	return nil
}

func cleanupImages(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	maxAge := c.Duration("max-age")
	if maxAge <= 0 {
		maxAge = cfg.Storage.TemporaryMaxAge
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	bucket, err := blob.OpenBucket(ctx, cfg.Storage.BucketURL)
	if err != nil {
		return fmt.Errorf("failed to open bucket: %w", err)
	}
	defer func() { _ = bucket.Close() }()

	storage := services.NewStorageService(bucket, cfg.Storage.PublicBaseURL, clock.New(), logger)
	deleted := scheduler.NewImageCleanupScheduler(storage, nil, cfg.Storage.CleanupInterval, maxAge, logger).RunOnce(ctx)
	logger.Info("Temporary image cleanup finished", zap.Int("deleted", deleted), zap.Duration("max_age", maxAge))
	return nil
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return db, nil
}

// initializeCache connects to redis. A disabled or unreachable cache yields a
// nil client and the API runs uncached.
func initializeCache(cfg config.CacheConfig, logger *zap.Logger) *redis.Client {
	if !cfg.Enabled || cfg.RedisURL == "" {
		logger.Info("Cache disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid redis url, running without cache", zap.Error(err))
		return nil
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		logger.Warn("Redis unreachable, running without cache", zap.Error(err))
		return nil
	}

	logger.Info("Redis connection established", zap.Int("db", cfg.RedisDB))
	return rc
}

// startCacheHealthMonitor periodically pings Redis to surface connectivity
// issues. The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("Redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService picks SMTP delivery when email is enabled and
// falls back to logging the message otherwise
func initializeNotificationService(cfg config.EmailConfig, logger *zap.Logger) services.NotificationService {
	var emailProvider services.EmailProvider
	if cfg.Enabled && cfg.Host != "" && cfg.Username != "" {
		emailProvider = services.NewSMTPEmailProvider(cfg, logger)
	} else {
		logger.Warn("SMTP not configured, staff credentials will only be logged")
		emailProvider = services.NewLogEmailProvider(logger)
	}
	return services.NewNotificationService(emailProvider)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, logger *zap.Logger) (*Application, error) {
	app := &Application{config: cfg, logger: logger}

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	rc := initializeCache(cfg.Cache, logger)
	if rc != nil {
		app.stopFuncs = append(app.stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval, logger))
		app.closers = append(app.closers, rc.Close)
	}

	bucket, err := blob.OpenBucket(context.Background(), cfg.Storage.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage bucket: %w", err)
	}
	app.closers = append(app.closers, bucket.Close)

	location, err := time.LoadLocation(cfg.Reports.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reports timezone %q: %w", cfg.Reports.Timezone, err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	userStoreRepo := repository.NewUserStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	txRunner := repository.NewTxRunner(db)

	// Services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	captchaService := services.NewCaptchaServiceRotate(
		clock.New(),
		cfg.Security.CaptchaTTL,
		cfg.Security.CaptchaAnglePadding,
		cfg.Security.CaptchaImageSizePixels,
	)
	cacheService := services.NewCacheService(rc, cfg.Cache.RedisPrefix, cfg.Cache.DefaultTTL, logger.Named("cache"))
	storageService := services.NewStorageService(bucket, cfg.Storage.PublicBaseURL, clock.New(), logger.Named("storage"))
	notificationService := initializeNotificationService(cfg.Email, logger.Named("email"))

	// Business flows
	signupFlow := businessflow.NewSignupFlow(userRepo, storeRepo, userStoreRepo, storageService, txRunner, cfg.Security.BcryptCost, logger)
	loginFlow := businessflow.NewLoginFlow(userRepo, userStoreRepo, tokenService, captchaService, cfg.Security.LoginCaptchaEnabled, logger)
	storeFlow := businessflow.NewStoreFlow(userRepo, storeRepo, userStoreRepo, storageService, logger)
	productFlow := businessflow.NewProductFlow(
		productRepo,
		brandRepo,
		categoryRepo,
		storageService,
		cacheService,
		cfg.Cache.StoreProductsTTL,
		cfg.Cache.WarmupDelay,
		logger,
	)
	categoryFlow := businessflow.NewCategoryFlow(categoryRepo, productRepo, productFlow, logger)
	brandFlow := businessflow.NewBrandFlow(brandRepo, productRepo, storageService, productFlow, logger)
	customerFlow := businessflow.NewCustomerFlow(customerRepo, storageService, logger)
	staffFlow := businessflow.NewStaffFlow(
		userRepo,
		storeRepo,
		userStoreRepo,
		notificationService,
		storageService,
		txRunner,
		cfg.Security.StaffPasswordLength,
		cfg.Security.BcryptCost,
		logger,
	)

	inventoryWorker := businessflow.NewInventoryWorker(productRepo, txRunner, productFlow, 0, logger.Named("inventory"))
	inventoryWorker.Start()
	app.stopFuncs = append(app.stopFuncs, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := inventoryWorker.Stop(ctx); err != nil {
			logger.Error("Inventory worker did not drain", zap.Error(err))
		}
	})

	transactionFlow := businessflow.NewTransactionFlow(
		transactionRepo,
		productRepo,
		customerRepo,
		userRepo,
		userStoreRepo,
		inventoryWorker,
		location,
		logger,
	)
	saleFlow := businessflow.NewSaleFlow(productRepo, logger)
	reportFlow := businessflow.NewReportFlow(transactionRepo, location, clock.New(), logger)
	imageFlow := businessflow.NewImageFlow(storageService, cfg.Storage.MaxImageSize, cfg.Storage.PreviewMaxDimension, logger)

	// Handlers
	h := router.Handlers{
		Auth:        handlers.NewAuthHandler(signupFlow, loginFlow, logger),
		Store:       handlers.NewStoreHandler(storeFlow, logger),
		Product:     handlers.NewProductHandler(productFlow, logger),
		Category:    handlers.NewCategoryHandler(categoryFlow, logger),
		Brand:       handlers.NewBrandHandler(brandFlow, logger),
		Customer:    handlers.NewCustomerHandler(customerFlow, logger),
		Staff:       handlers.NewStaffHandler(staffFlow, logger),
		Transaction: handlers.NewTransactionHandler(transactionFlow, logger),
		Sale:        handlers.NewSaleHandler(saleFlow, reportFlow, logger),
		Image:       handlers.NewImageHandler(imageFlow, logger),
		Health:      handlers.NewHealthHandler(cfg.Deployment.Version, logger),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService, storeFlow, logger)
	app.router = router.NewFiberRouter(cfg, h, authMiddleware, logger)

	if cfg.Storage.CleanupEnabled {
		cleanup := scheduler.NewImageCleanupScheduler(
			storageService,
			clock.New(),
			cfg.Storage.CleanupInterval,
			cfg.Storage.TemporaryMaxAge,
			logger.Named("image-cleanup"),
		)
		app.stopFuncs = append(app.stopFuncs, cleanup.Start(context.Background()))
	}

	return app, nil
}
