package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jhoicas/pos-api/internal/application/analytics"
	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/application/usecase"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	Access         *usecase.AccessService
	ShopUC         *usecase.ShopUseCase
	CategoryUC     *usecase.CategoryUseCase
	UnitUC         *usecase.UnitUseCase
	ProductUC      *usecase.ProductUseCase
	StockUC        *inventory.StockUseCase
	TransactionUC  *sales.TransactionUseCase
	CustomerUC     *sales.CustomerUseCase
	ReportUC       *analytics.ReportUseCase
	SubscriptionUC *billing.SubscriptionUseCase
	JWTSecret      string

	// OTPRateLimit solicitudes por IP y ventana en las rutas que envían OTP. 0 desactiva el límite.
	OTPRateLimit  int
	OTPRateWindow time.Duration
}

// Router registra las rutas de la API.
//
// Lecturas: cualquier usuario autenticado. Escrituras de tienda (productos, stock, ventas,
// categorías): además cuenta activa. Recarga de saldo: siempre, para poder reactivarse.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	otp := otpLimiter(deps.OTPRateLimit, deps.OTPRateWindow)
	authGroup.Post("/register", otp, authHandler.Register)
	authGroup.Post("/register/verify", authHandler.VerifyRegister)
	authGroup.Post("/login", otp, authHandler.Login)
	authGroup.Post("/login/verify", authHandler.VerifyLogin)
	authGroup.Post("/password/forgot", otp, authHandler.ForgotPassword)
	authGroup.Post("/password/verify", authHandler.ForgotVerify)
	authGroup.Post("/password/update", authHandler.ForgotUpdate)
	authGroup.Post("/refresh", authHandler.Refresh)

	// Rutas protegidas (requieren Bearer Token y sesión vigente)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), SessionMiddleware(deps.Access))
	active := RequireActive()
	owner := RequireRole(entity.RoleOwner)

	protected.Get("/auth/profile", authHandler.Profile)

	shopHandler := NewShopHandler(deps.ShopUC)
	protected.Get("/shops", shopHandler.List)
	protected.Post("/shops", active, owner, shopHandler.Create)

	catHandler := NewCategoryHandler(deps.CategoryUC, deps.UnitUC)
	protected.Get("/categories", catHandler.List)
	protected.Get("/categories/:id", catHandler.GetByID)
	protected.Post("/categories", active, catHandler.Create)
	protected.Put("/categories/:id", active, catHandler.Update)
	protected.Get("/units", catHandler.ListUnits)
	protected.Post("/units", active, catHandler.CreateUnit)

	productHandler := NewProductHandler(deps.ProductUC)
	protected.Get("/products", productHandler.List)
	protected.Get("/products/search", productHandler.Search)
	protected.Get("/products/barcode/:barcode", productHandler.GetByBarcode)
	protected.Get("/products/:id", productHandler.GetByID)
	protected.Post("/products", active, productHandler.Create)
	protected.Put("/products/:id", active, productHandler.Update)
	protected.Delete("/products/:id", active, owner, productHandler.Delete)

	invHandler := NewInventoryHandler(deps.StockUC)
	protected.Get("/inventory/movements", invHandler.ListMovements)
	protected.Post("/inventory/movements", active, invHandler.RegisterMovement)

	txHandler := NewTransactionHandler(deps.TransactionUC)
	protected.Get("/transactions", txHandler.History)
	protected.Get("/transactions/:id", txHandler.GetByID)
	protected.Get("/transactions/:id/receipt", txHandler.Receipt)
	protected.Post("/transactions", active, txHandler.Create)
	protected.Post("/transactions/:id/refund", active, owner, txHandler.Refund)

	customerHandler := NewCustomerHandler(deps.CustomerUC)
	protected.Get("/customers", customerHandler.List)
	protected.Get("/customers/:id", customerHandler.GetByID)

	protected.Get("/analytics", NewAnalyticsHandler(deps.ReportUC).Report)

	paymentHandler := NewPaymentHandler(deps.SubscriptionUC)
	protected.Get("/payments", paymentHandler.List)
	protected.Post("/payments/topup", paymentHandler.TopUp)
}

// otpLimiter limita por IP las rutas que disparan un SMS.
func otpLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code: "RATE_LIMITED", Message: "demasiadas solicitudes de código, espere un momento",
			})
		},
	})
}
