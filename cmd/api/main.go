package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/text/language"

	"github.com/jhoicas/pos-api/internal/application/analytics"
	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/application/usecase"
	"github.com/jhoicas/pos-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/pos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/pos-api/internal/interfaces/http"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}
	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Analytics.Timezone).Msg("zona horaria inválida")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		migrator, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate"))
		if err != nil {
			log.Fatal().Err(err).Msg("preparar migraciones")
		}
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		if err := migrator.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer redisClient.Close()

	// Repositorios
	userRepo := postgres.NewUserRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	unitRepo := postgres.NewUnitRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Casos de uso
	authUC := auth.NewAuthUseCase(userRepo,
		cache.NewRedisOTPStore(redisClient),
		notify.NewSenderFromConfig(cfg.Notify, log.Component("notify")),
		auth.JWTConfig{
			Secret:            cfg.JWT.Secret,
			ExpMinutes:        cfg.JWT.Expiration,
			RefreshExpMinutes: cfg.JWT.RefreshExpiration,
			Issuer:            cfg.JWT.Issuer,
		},
		auth.OTPConfig{
			TTL:         cfg.OTP.TTL,
			MaxAttempts: cfg.OTP.MaxAttempts,
			Message:     cfg.OTP.Message,
		},
		log.Component("auth"),
	)
	subscriptionUC := billing.NewSubscriptionUseCase(txRunner, userRepo, paymentRepo, billing.Config{
		MonthlyFee: cfg.Billing.MonthlyFee,
		ChunkSize:  cfg.Billing.ChunkSize,
		PeriodDays: cfg.Billing.PeriodDays,
	}, log.Component("billing"))

	// Recibo PDF: separadores de miles de ruso (espacio), moneda local.
	receipts := infrapdf.NewReceiptRenderer(language.Russian, "so'm")
	transactionUC := sales.NewTransactionUseCase(txRunner, transactionRepo, customerRepo, shopRepo, receipts,
		sales.Policy{AllowNegativeStockAutofill: cfg.Sales.AllowNegativeStockAutofill},
		log.Component("sales"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		Access:         usecase.NewAccessService(userRepo),
		ShopUC:         usecase.NewShopUseCase(txRunner, shopRepo),
		CategoryUC:     usecase.NewCategoryUseCase(categoryRepo),
		UnitUC:         usecase.NewUnitUseCase(unitRepo),
		ProductUC:      usecase.NewProductUseCase(txRunner, productRepo, categoryRepo, unitRepo),
		StockUC:        inventory.NewStockUseCase(txRunner, movementRepo, loc, log.Component("inventory")),
		TransactionUC:  transactionUC,
		CustomerUC:     sales.NewCustomerUseCase(customerRepo),
		ReportUC:       analytics.NewReportUseCase(analyticsRepo, loc, cfg.Analytics.TopN),
		SubscriptionUC: subscriptionUC,
		JWTSecret:      cfg.JWT.Secret,
		OTPRateLimit:   cfg.OTP.RequestsLimit,
		OTPRateWindow:  cfg.OTP.RequestsWindow,
	})

	var billingScheduler *scheduler.BillingScheduler
	if cfg.Billing.Enabled {
		billingScheduler = scheduler.NewBillingScheduler(subscriptionUC, cfg.Billing.Interval, log.Component("scheduler"))
		billingScheduler.Start(ctx)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	if billingScheduler != nil {
		billingScheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
