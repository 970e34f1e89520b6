package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/analytics"
	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/application/usecase"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	apphttp "github.com/jhoicas/pos-api/internal/interfaces/http"
	"github.com/jhoicas/pos-api/internal/testutil/memstore"
	pkgjwt "github.com/jhoicas/pos-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor de prueba: casos de uso reales sobre memstore
// ──────────────────────────────────────────────────────────────────────────────

const (
	ownerID  = "00000000-0000-0000-0000-0000000000b1"
	idleID   = "00000000-0000-0000-0000-0000000000b2"
	shopA    = "00000000-0000-0000-0000-0000000000a1"
	breadID  = "00000000-0000-0000-0000-0000000000c1"
	unknownP = "00000000-0000-0000-0000-0000000000cf"
)

type memOTP struct {
	mu       sync.Mutex
	entries  map[string]entity.OTPEntry
	attempts map[string]int
}

func (m *memOTP) Save(_ context.Context, pk string, e entity.OTPEntry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[pk] = e
	delete(m.attempts, pk)
	return nil
}

func (m *memOTP) Get(_ context.Context, pk string) (*entity.OTPEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[pk]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memOTP) Update(_ context.Context, pk string, e entity.OTPEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[pk] = e
	return nil
}

func (m *memOTP) IncrAttempts(_ context.Context, pk string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[pk]; !ok {
		return 0, domain.ErrInvalidOTP
	}
	m.attempts[pk]++
	return m.attempts[pk], nil
}

func (m *memOTP) Delete(_ context.Context, pk string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, pk)
	delete(m.attempts, pk)
	return nil
}

// lastCode guarda el último texto enviado; el código son sus últimos 6 caracteres.
type lastCode struct {
	mu   sync.Mutex
	text string
}

func (s *lastCode) Send(_ context.Context, _, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	return nil
}

func (s *lastCode) code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text[len(s.text)-6:]
}

type emptyAnalytics struct{}

func (emptyAnalytics) GetSummary(context.Context, repository.AnalyticsScope, time.Time, time.Time) (repository.SalesSummary, error) {
	return repository.SalesSummary{}, nil
}

func (emptyAnalytics) GetTimeSeries(context.Context, repository.AnalyticsScope, time.Time, time.Time, string, string) ([]repository.BucketRow, error) {
	return nil, nil
}

func (emptyAnalytics) GetByHour(context.Context, repository.AnalyticsScope, time.Time, time.Time, string) ([]repository.HourRow, error) {
	return nil, nil
}

func (emptyAnalytics) GetPaymentBreakdown(context.Context, repository.AnalyticsScope, time.Time, time.Time) ([]repository.PaymentRow, error) {
	return nil, nil
}

func (emptyAnalytics) GetTopProducts(context.Context, repository.AnalyticsScope, time.Time, time.Time, int) ([]repository.TopProductRow, error) {
	return nil, nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderReceipt(context.Context, *entity.Shop, *entity.Transaction) ([]byte, error) {
	return []byte("%PDF-1.3 test"), nil
}

type server struct {
	app    *fiber.App
	store  *memstore.Store
	sender *lastCode
}

func newServer(t *testing.T, otpLimit int) *server {
	t.Helper()
	s := memstore.New()
	now := time.Now()
	s.Users[ownerID] = &entity.User{ID: ownerID, Phone: "998900000001", FullName: "Dueño", Role: entity.RoleOwner, IsActive: true, IsShop: true, ShopID: shopA, Balance: decimal.Zero}
	s.Users[idleID] = &entity.User{ID: idleID, Phone: "998900000002", FullName: "Moroso", Role: entity.RoleOwner, IsActive: false, Balance: decimal.Zero}
	s.Shops[shopA] = &entity.Shop{ID: shopA, OwnerID: ownerID, Name: "Do'kon", IsActive: true, CreatedAt: now}
	s.Products[breadID] = &entity.Product{ID: breadID, ShopID: shopA, Name: "Non", Price: decimal.NewFromInt(4000), CostPrice: decimal.NewFromInt(2500), Quantity: decimal.NewFromInt(3), IsActive: true}

	runner := memstore.NewTxRunner(s)
	userRepo := memstore.NewUserRepo(s)
	productRepo := memstore.NewProductRepo(s)
	sender := &lastCode{}

	deps := apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(userRepo, &memOTP{entries: map[string]entity.OTPEntry{}, attempts: map[string]int{}}, sender,
			auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, RefreshExpMinutes: 120, Issuer: testIssuer},
			auth.OTPConfig{TTL: time.Minute, MaxAttempts: 5, Message: "Kod"}, zerolog.Nop()),
		Access:     usecase.NewAccessService(userRepo),
		ShopUC:     usecase.NewShopUseCase(runner, memstore.NewShopRepo(s)),
		CategoryUC: usecase.NewCategoryUseCase(memstore.NewCategoryRepo(s)),
		UnitUC:     usecase.NewUnitUseCase(memstore.NewUnitRepo(s)),
		ProductUC:  usecase.NewProductUseCase(runner, productRepo, memstore.NewCategoryRepo(s), memstore.NewUnitRepo(s)),
		StockUC:    inventory.NewStockUseCase(runner, memstore.NewMovementRepo(s), time.UTC, zerolog.Nop()),
		TransactionUC: sales.NewTransactionUseCase(runner, memstore.NewTransactionRepo(s), memstore.NewCustomerRepo(s),
			memstore.NewShopRepo(s), fakeRenderer{}, sales.Policy{}, zerolog.Nop()),
		CustomerUC: sales.NewCustomerUseCase(memstore.NewCustomerRepo(s)),
		ReportUC:   analytics.NewReportUseCase(emptyAnalytics{}, time.UTC, 20),
		SubscriptionUC: billing.NewSubscriptionUseCase(runner, userRepo, memstore.NewPaymentRepo(s),
			billing.Config{MonthlyFee: decimal.NewFromInt(50000), ChunkSize: 10, PeriodDays: 30}, zerolog.Nop()),
		JWTSecret:     testJWTSecret,
		OTPRateLimit:  otpLimit,
		OTPRateWindow: time.Minute,
	}
	app := fiber.New()
	app.Use(apphttp.RequestLogger(zerolog.Nop()))
	apphttp.Router(app, deps)
	return &server{app: app, store: s, sender: sender}
}

func bearer(t *testing.T, userID, shopID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, shopID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *server) do(t *testing.T, method, path, authz string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m), string(raw))
	return m
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_RegisterVerifyAndProfile(t *testing.T) {
	s := newServer(t, 0)

	resp, raw := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"phone": "+998901112233", "full_name": "Aziz", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	pk := decode(t, raw)["pk"].(string)

	resp, raw = s.do(t, http.MethodPost, "/api/auth/register/verify", "", map[string]string{"pk": pk, "code": s.sender.code()})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	access := decode(t, raw)["access_token"].(string)

	resp, raw = s.do(t, http.MethodGet, "/api/auth/profile", "Bearer "+access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode(t, raw)
	assert.Equal(t, "998901112233", profile["phone"])
	assert.Equal(t, true, profile["is_active"])
}

func TestRouter_RegisterValidationFields(t *testing.T) {
	s := newServer(t, 0)
	resp, raw := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"phone": "abc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, raw)
	assert.Equal(t, "VALIDATION", body["code"])
	fields := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "full_name")
	assert.Contains(t, fields, "password")
}

func TestRouter_WrongOTPCode(t *testing.T) {
	s := newServer(t, 0)
	_, raw := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"phone": "998901112244", "full_name": "B", "password": "secret123",
	})
	pk := decode(t, raw)["pk"].(string)
	wrong := "000000"
	if s.sender.code() == wrong {
		wrong = "111111"
	}
	resp, raw := s.do(t, http.MethodPost, "/api/auth/register/verify", "", map[string]string{"pk": pk, "code": wrong})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_OTP", decode(t, raw)["code"])
}

func TestRouter_OTPRateLimit(t *testing.T) {
	s := newServer(t, 2)
	body := map[string]string{"phone": "998900000001", "password": "wrong"}
	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode)
	}
	resp, raw := s.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode(t, raw)["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesión y cuenta activa
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_InactiveUserCanReadButNotWrite(t *testing.T) {
	s := newServer(t, 0)
	tok := bearer(t, idleID, "", entity.RoleOwner)

	resp, _ := s.do(t, http.MethodGet, "/api/shops", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := s.do(t, http.MethodPost, "/api/shops", tok, map[string]string{"name": "Nueva"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "INACTIVE_USER", decode(t, raw)["code"])

	// La recarga sigue disponible para reactivar la cuenta.
	resp, raw = s.do(t, http.MethodPost, "/api/payments/topup", tok, map[string]interface{}{"amount": 60000})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, true, decode(t, raw)["is_active"])

	resp, _ = s.do(t, http.MethodPost, "/api/shops", tok, map[string]string{"name": "Nueva"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRouter_DeletedUserIsUnauthorized(t *testing.T) {
	s := newServer(t, 0)
	resp, _ := s.do(t, http.MethodGet, "/api/products", bearer(t, "00000000-0000-0000-0000-0000000000ff", shopA, entity.RoleOwner), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_ShopComesFromDatabaseNotToken(t *testing.T) {
	s := newServer(t, 0)
	// Token emitido antes de crear la tienda: sin shop_id.
	resp, raw := s.do(t, http.MethodGet, "/api/products", bearer(t, ownerID, "", entity.RoleOwner), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), breadID)
}

func TestRouter_SellerCannotRefund(t *testing.T) {
	s := newServer(t, 0)
	s.store.Users[ownerID].Role = entity.RoleSeller
	resp, raw := s.do(t, http.MethodPost, "/api/transactions/"+unknownP+"/refund", bearer(t, ownerID, shopA, entity.RoleOwner), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode(t, raw)["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo y ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_SaleFlow(t *testing.T) {
	s := newServer(t, 0)
	tok := bearer(t, ownerID, shopA, entity.RoleOwner)

	resp, raw := s.do(t, http.MethodPost, "/api/transactions", tok, map[string]interface{}{
		"payment_type": "cash",
		"items":        []map[string]interface{}{{"product_id": breadID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	tx := decode(t, raw)
	txID := tx["id"].(string)
	assert.Equal(t, "completed", tx["status"])
	assert.True(t, s.store.Products[breadID].Quantity.Equal(decimal.NewFromInt(1)))

	resp, raw = s.do(t, http.MethodGet, "/api/transactions", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), txID)

	resp, raw = s.do(t, http.MethodGet, "/api/transactions/"+txID+"/receipt", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))

	resp, raw = s.do(t, http.MethodPost, "/api/transactions/"+txID+"/refund", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "refunded", decode(t, raw)["status"])
	assert.True(t, s.store.Products[breadID].Quantity.Equal(decimal.NewFromInt(3)))

	resp, raw = s.do(t, http.MethodPost, "/api/transactions/"+txID+"/refund", tok, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode(t, raw)["code"])
}

func TestRouter_SaleInsufficientStock(t *testing.T) {
	s := newServer(t, 0)
	resp, raw := s.do(t, http.MethodPost, "/api/transactions", bearer(t, ownerID, shopA, entity.RoleOwner), map[string]interface{}{
		"payment_type": "card",
		"items":        []map[string]interface{}{{"product_id": breadID, "quantity": 5}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Contains(t, body["fields"], breadID)
	assert.True(t, s.store.Products[breadID].Quantity.Equal(decimal.NewFromInt(3)), "sin cambios tras el rechazo")
}

func TestRouter_SaleValidation(t *testing.T) {
	s := newServer(t, 0)
	resp, raw := s.do(t, http.MethodPost, "/api/transactions", bearer(t, ownerID, shopA, entity.RoleOwner), map[string]interface{}{
		"payment_type": "barter",
		"items":        []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields := decode(t, raw)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "payment_type")
	assert.Contains(t, fields, "items")
}

func TestRouter_SaleQuantityScale(t *testing.T) {
	s := newServer(t, 0)
	resp, raw := s.do(t, http.MethodPost, "/api/transactions", bearer(t, ownerID, shopA, entity.RoleOwner), map[string]interface{}{
		"payment_type": "cash",
		"items":        []map[string]interface{}{{"product_id": breadID, "quantity": "0.0001"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
	fields := decode(t, raw)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "items[0].quantity")
}

func TestRouter_MalformedIDIsNotFound(t *testing.T) {
	s := newServer(t, 0)
	tok := bearer(t, ownerID, shopA, entity.RoleOwner)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/transactions/not-a-uuid"},
		{http.MethodGet, "/api/transactions/not-a-uuid/receipt"},
		{http.MethodPost, "/api/transactions/not-a-uuid/refund"},
		{http.MethodGet, "/api/products/not-a-uuid"},
		{http.MethodDelete, "/api/products/not-a-uuid"},
		{http.MethodGet, "/api/categories/not-a-uuid"},
		{http.MethodGet, "/api/customers/not-a-uuid"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, raw := s.do(t, tc.method, tc.path, tok, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
			assert.Equal(t, "NOT_FOUND", decode(t, raw)["code"])
		})
	}
}

func TestRouter_ProductCrudAndMovements(t *testing.T) {
	s := newServer(t, 0)
	tok := bearer(t, ownerID, shopA, entity.RoleOwner)

	resp, raw := s.do(t, http.MethodPost, "/api/products", tok, map[string]interface{}{
		"name": "Sut 1L", "price": 12000, "cost_price": 9000, "barcode": "4780000000011", "initial_quantity": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	id := decode(t, raw)["id"].(string)

	resp, raw = s.do(t, http.MethodGet, "/api/products/barcode/4780000000011", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, decode(t, raw)["id"])

	resp, raw = s.do(t, http.MethodGet, "/api/products/search?q=SUT", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), id)

	resp, raw = s.do(t, http.MethodPost, "/api/inventory/movements", tok, map[string]interface{}{
		"product_id": id, "type": "out", "quantity": 4, "reason": "merma",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = s.do(t, http.MethodGet, "/api/inventory/movements?product_id="+id, tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movements []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &movements))
	require.Len(t, movements, 2)
	assert.Equal(t, "out", movements[0]["type"])

	resp, _ = s.do(t, http.MethodDelete, "/api/products/"+id, tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/products/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PRODUCT_NOT_FOUND", decode(t, raw)["code"])
}

func TestRouter_AnalyticsScopeMismatch(t *testing.T) {
	s := newServer(t, 0)
	tok := bearer(t, ownerID, shopA, entity.RoleOwner)

	resp, _ := s.do(t, http.MethodGet, "/api/analytics?group_by=week", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := s.do(t, http.MethodGet, "/api/analytics?shop_id=00000000-0000-0000-0000-0000000000a9", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "SCOPE_MISMATCH", decode(t, raw)["code"])

	resp, _ = s.do(t, http.MethodGet, "/api/analytics?start=2026-02-10&end=2026-02-01", tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
