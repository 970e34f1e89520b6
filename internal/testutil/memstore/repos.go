package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var (
	_ repository.UserRepository          = UserRepo{}
	_ repository.ShopRepository          = ShopRepo{}
	_ repository.CategoryRepository      = CategoryRepo{}
	_ repository.UnitRepository          = UnitRepo{}
	_ repository.ProductRepository       = ProductRepo{}
	_ repository.StockMovementRepository = MovementRepo{}
	_ repository.CustomerRepository      = CustomerRepo{}
	_ repository.TransactionRepository   = TransactionRepo{}
	_ repository.PaymentRepository       = PaymentRepo{}
)

// ── Users ────────────────────────────────────────────────────────────────────

type UserRepo struct{ s *Store }

func NewUserRepo(s *Store) UserRepo { return UserRepo{s} }

func (r UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.Users {
		if x.Phone == u.Phone || x.InvoiceCode == u.InvoiceCode {
			return domain.ErrDuplicate
		}
	}
	cp := *u
	r.s.Users[u.ID] = &cp
	return nil
}

func (r UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.Users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r UserRepo) GetForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return r.GetByID(ctx, id)
}

func (r UserRepo) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.Users {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r UserRepo) InvoiceCodeExists(_ context.Context, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.Users {
		if u.InvoiceCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r UserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *entity.User) { u.PasswordHash = hash })
}

func (r UserRepo) AttachShop(_ context.Context, id, shopID string) error {
	return r.mutate(id, func(u *entity.User) { u.IsShop = true; u.ShopID = shopID })
}

func (r UserRepo) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	return r.mutate(id, func(u *entity.User) { u.Balance = balance })
}

func (r UserRepo) ChargeSubscription(_ context.Context, id string, balance decimal.Decimal, paidUntil time.Time) error {
	if r.s.FailChargeUserID != "" && r.s.FailChargeUserID == id {
		return errInjected
	}
	return r.mutate(id, func(u *entity.User) {
		u.Balance = balance
		pu := paidUntil
		u.PaidUntil = &pu
	})
}

func (r UserRepo) SetActive(_ context.Context, id string, active bool) error {
	if !active && r.s.FailChargeUserID != "" && r.s.FailChargeUserID == id {
		return errInjected
	}
	return r.mutate(id, func(u *entity.User) { u.IsActive = active })
}

func (r UserRepo) ListDueForUpdate(_ context.Context, afterID string, now time.Time, limit int) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.Users))
	for id, u := range r.s.Users {
		if !u.IsActive || id <= afterID {
			continue
		}
		if u.PaidUntil != nil && u.PaidUntil.After(now) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		cp := *r.s.Users[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r UserRepo) mutate(id string, fn func(*entity.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

// ── Shops / categories / units ───────────────────────────────────────────────

type ShopRepo struct{ s *Store }

func NewShopRepo(s *Store) ShopRepo { return ShopRepo{s} }

func (r ShopRepo) Create(_ context.Context, sh *entity.Shop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sh
	r.s.Shops[sh.ID] = &cp
	return nil
}

func (r ShopRepo) GetByID(_ context.Context, id string) (*entity.Shop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sh, ok := r.s.Shops[id]; ok {
		cp := *sh
		return &cp, nil
	}
	return nil, nil
}

func (r ShopRepo) ListByOwner(_ context.Context, ownerID string) ([]*entity.Shop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Shop
	for _, sh := range r.s.Shops {
		if sh.OwnerID == ownerID {
			cp := *sh
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type CategoryRepo struct{ s *Store }

func NewCategoryRepo(s *Store) CategoryRepo { return CategoryRepo{s} }

func (r CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.Categories {
		if x.ShopID == c.ShopID && strings.EqualFold(x.Name, c.Name) {
			return domain.ErrDuplicate
		}
	}
	cp := *c
	r.s.Categories[c.ID] = &cp
	return nil
}

func (r CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.Categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r CategoryRepo) ListByShop(_ context.Context, shopID string) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Category
	for _, c := range r.s.Categories {
		if c.ShopID == shopID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r CategoryRepo) Update(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Categories[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.s.Categories[c.ID] = &cp
	return nil
}

type UnitRepo struct{ s *Store }

func NewUnitRepo(s *Store) UnitRepo { return UnitRepo{s} }

func (r UnitRepo) Create(_ context.Context, u *entity.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.Units {
		if strings.EqualFold(x.Name, u.Name) {
			return domain.ErrDuplicate
		}
	}
	cp := *u
	r.s.Units[u.ID] = &cp
	return nil
}

func (r UnitRepo) GetByID(_ context.Context, id string) (*entity.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.Units[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r UnitRepo) List(_ context.Context) ([]*entity.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Unit, 0, len(r.s.Units))
	for _, u := range r.s.Units {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Products / movements ─────────────────────────────────────────────────────

type ProductRepo struct{ s *Store }

func NewProductRepo(s *Store) ProductRepo { return ProductRepo{s} }

func (r ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.Barcode != "" {
		for _, x := range r.s.Products {
			if x.Barcode == p.Barcode {
				return domain.ErrDuplicate
			}
		}
	}
	cp := *p
	r.s.Products[p.ID] = &cp
	return nil
}

func (r ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.Products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r ProductRepo) GetByBarcode(_ context.Context, barcode string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.Products {
		if p.Barcode != "" && p.Barcode == barcode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r ProductRepo) ListByShop(_ context.Context, shopID string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.Product
	for _, p := range r.s.Products {
		if p.ShopID == shopID {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, limit, offset), nil
}

func (r ProductRepo) SearchByName(_ context.Context, shopID, query string, limit int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []*entity.Product
	for _, p := range r.s.Products {
		if p.ShopID == shopID && strings.Contains(strings.ToLower(p.Name), q) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, 0), nil
}

func (r ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.Products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Barcode != "" {
		for id, x := range r.s.Products {
			if id != p.ID && x.Barcode == p.Barcode {
				return domain.ErrDuplicate
			}
		}
	}
	cp := *p
	cp.Quantity = cur.Quantity
	r.s.Products[p.ID] = &cp
	return nil
}

func (r ProductRepo) UpdateQuantity(_ context.Context, id string, qty decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.Products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Quantity = qty
	return nil
}

func (r ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.Products, id)
	return nil
}

type MovementRepo struct{ s *Store }

func NewMovementRepo(s *Store) MovementRepo { return MovementRepo{s} }

func (r MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.Movements = append(r.s.Movements, &cp)
	return nil
}

func (r MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovementView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockMovementView
	for i := len(r.s.Movements) - 1; i >= 0; i-- {
		m := r.s.Movements[i]
		if f.ShopID != "" && m.ShopID != f.ShopID {
			continue
		}
		if f.ShopID == "" && f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		v := &entity.StockMovementView{StockMovement: *m}
		if p, ok := r.s.Products[m.ProductID]; ok {
			v.ProductName = p.Name
		}
		if u, ok := r.s.Users[m.UserID]; ok {
			v.UserName = u.FullName
		}
		if sh, ok := r.s.Shops[m.ShopID]; ok {
			v.ShopName = sh.Name
		}
		out = append(out, v)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// ProductMovements devuelve los movimientos de un producto en orden de inserción.
func (s *Store) ProductMovements(productID string) []entity.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.StockMovement
	for _, m := range s.Movements {
		if m.ProductID == productID {
			out = append(out, *m)
		}
	}
	return out
}

// ── Customers / transactions / payments ──────────────────────────────────────

type CustomerRepo struct{ s *Store }

func NewCustomerRepo(s *Store) CustomerRepo { return CustomerRepo{s} }

func (r CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.Customers {
		if x.ShopID == c.ShopID && x.Phone == c.Phone {
			return domain.ErrDuplicate
		}
	}
	cp := *c
	r.s.Customers[c.ID] = &cp
	return nil
}

func (r CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.Customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r CustomerRepo) GetByPhone(_ context.Context, shopID, phone string) (*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.Customers {
		if c.ShopID == shopID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r CustomerRepo) ListByShop(_ context.Context, shopID string, limit, offset int) ([]*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.Customer
	for _, c := range r.s.Customers {
		if c.ShopID == shopID {
			cp := *c
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, limit, offset), nil
}

func (r CustomerRepo) AddDebt(_ context.Context, id string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.Customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalDebt = c.TotalDebt.Add(delta)
	return nil
}

type TransactionRepo struct{ s *Store }

func NewTransactionRepo(s *Store) TransactionRepo { return TransactionRepo{s} }

func (r TransactionRepo) Create(_ context.Context, t *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	cp.Items = nil
	r.s.Transactions[t.ID] = &cp
	return nil
}

func (r TransactionRepo) CreateItem(_ context.Context, it *entity.TransactionItem) error {
	if r.s.FailCreateItem != nil {
		return r.s.FailCreateItem
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *it
	r.s.Items = append(r.s.Items, &cp)
	return nil
}

func (r TransactionRepo) UpdateTotals(_ context.Context, t *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.Transactions[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.TotalPrice, cur.CostTotal, cur.Discount, cur.Profit = t.TotalPrice, t.CostTotal, t.Discount, t.Profit
	return nil
}

func (r TransactionRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.Transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = status
	return nil
}

func (r TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	t, err := r.GetForUpdate(ctx, id)
	if err != nil || t == nil {
		return t, err
	}
	t.Items, _ = r.ListItems(ctx, id)
	return t, nil
}

func (r TransactionRepo) GetForUpdate(_ context.Context, id string) (*entity.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.Transactions[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r TransactionRepo) ListItems(_ context.Context, transactionID string) ([]entity.TransactionItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.TransactionItem
	for _, it := range r.s.Items {
		if it.TransactionID == transactionID {
			cp := *it
			if p, ok := r.s.Products[it.ProductID]; ok {
				cp.ProductName = p.Name
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r TransactionRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, error) {
	r.s.mu.RLock()
	var all []*entity.Transaction
	for _, t := range r.s.Transactions {
		if t.UserID == userID {
			cp := *t
			all = append(all, &cp)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	page := paginate(all, limit, offset)
	for _, t := range page {
		t.Items, _ = r.ListItems(ctx, t.ID)
	}
	return page, nil
}

type PaymentRepo struct{ s *Store }

func NewPaymentRepo(s *Store) PaymentRepo { return PaymentRepo{s} }

func (r PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.Payments = append(r.s.Payments, &cp)
	return nil
}

func (r PaymentRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.Payment
	for i := len(r.s.Payments) - 1; i >= 0; i-- {
		if r.s.Payments[i].UserID == userID {
			cp := *r.s.Payments[i]
			all = append(all, &cp)
		}
	}
	return paginate(all, limit, offset), nil
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
