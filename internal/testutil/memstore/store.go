// Package memstore implementa los puertos de repositorio en memoria para los tests de casos de uso.
// Los Run* serializan las transacciones y restauran una copia del estado si fn devuelve error.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	txMu sync.Mutex // una transacción a la vez, equivale a bloquear todas las filas
	mu   sync.RWMutex

	Users        map[string]*entity.User
	Shops        map[string]*entity.Shop
	Categories   map[string]*entity.Category
	Units        map[string]*entity.Unit
	Products     map[string]*entity.Product
	Movements    []*entity.StockMovement
	Customers    map[string]*entity.Customer
	Transactions map[string]*entity.Transaction
	Items        []*entity.TransactionItem
	Payments     []*entity.Payment

	// FailCreateItem, si no es nil, se devuelve al insertar una línea de venta.
	FailCreateItem error
	// FailChargeUserID hace fallar el cobro o la desactivación de ese usuario.
	FailChargeUserID string
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		Users:        map[string]*entity.User{},
		Shops:        map[string]*entity.Shop{},
		Categories:   map[string]*entity.Category{},
		Units:        map[string]*entity.Unit{},
		Products:     map[string]*entity.Product{},
		Customers:    map[string]*entity.Customer{},
		Transactions: map[string]*entity.Transaction{},
	}
}

var errInjected = errors.New("memstore: fallo inyectado")

// ErrInjected error usado por los ganchos de fallo.
func ErrInjected() error { return errInjected }

type snapshot struct {
	users        map[string]entity.User
	shops        map[string]entity.Shop
	categories   map[string]entity.Category
	units        map[string]entity.Unit
	products     map[string]entity.Product
	movements    int
	customers    map[string]entity.Customer
	transactions map[string]entity.Transaction
	items        int
	payments     int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		users:        make(map[string]entity.User, len(s.Users)),
		shops:        make(map[string]entity.Shop, len(s.Shops)),
		categories:   make(map[string]entity.Category, len(s.Categories)),
		units:        make(map[string]entity.Unit, len(s.Units)),
		products:     make(map[string]entity.Product, len(s.Products)),
		movements:    len(s.Movements),
		customers:    make(map[string]entity.Customer, len(s.Customers)),
		transactions: make(map[string]entity.Transaction, len(s.Transactions)),
		items:        len(s.Items),
		payments:     len(s.Payments),
	}
	for k, v := range s.Users {
		snap.users[k] = *v
	}
	for k, v := range s.Shops {
		snap.shops[k] = *v
	}
	for k, v := range s.Categories {
		snap.categories[k] = *v
	}
	for k, v := range s.Units {
		snap.units[k] = *v
	}
	for k, v := range s.Products {
		snap.products[k] = *v
	}
	for k, v := range s.Customers {
		snap.customers[k] = *v
	}
	for k, v := range s.Transactions {
		snap.transactions[k] = *v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Users = make(map[string]*entity.User, len(snap.users))
	for k, v := range snap.users {
		v := v
		s.Users[k] = &v
	}
	s.Shops = make(map[string]*entity.Shop, len(snap.shops))
	for k, v := range snap.shops {
		v := v
		s.Shops[k] = &v
	}
	s.Categories = make(map[string]*entity.Category, len(snap.categories))
	for k, v := range snap.categories {
		v := v
		s.Categories[k] = &v
	}
	s.Units = make(map[string]*entity.Unit, len(snap.units))
	for k, v := range snap.units {
		v := v
		s.Units[k] = &v
	}
	s.Products = make(map[string]*entity.Product, len(snap.products))
	for k, v := range snap.products {
		v := v
		s.Products[k] = &v
	}
	s.Customers = make(map[string]*entity.Customer, len(snap.customers))
	for k, v := range snap.customers {
		v := v
		s.Customers[k] = &v
	}
	s.Transactions = make(map[string]*entity.Transaction, len(snap.transactions))
	for k, v := range snap.transactions {
		v := v
		s.Transactions[k] = &v
	}
	s.Movements = s.Movements[:snap.movements]
	s.Items = s.Items[:snap.items]
	s.Payments = s.Payments[:snap.payments]
}

// TxRunner implementa los TxRunner de ventas, stock, tiendas y cobros sobre el Store.
type TxRunner struct {
	s *Store
	// Runs cuenta las transacciones iniciadas (commit o rollback).
	Runs int
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

func (r *TxRunner) run(fn func() error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	r.Runs++
	snap := r.s.snapshot()
	if err := fn(); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

// RunSales ver sales.TxRunner.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	transactionRepo repository.TransactionRepository,
	customerRepo repository.CustomerRepository,
) error) error {
	return r.run(func() error {
		return fn(ProductRepo{r.s}, MovementRepo{r.s}, TransactionRepo{r.s}, CustomerRepo{r.s})
	})
}

// RunStock ver inventory.TxRunner.
func (r *TxRunner) RunStock(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) error) error {
	return r.run(func() error {
		return fn(ProductRepo{r.s}, MovementRepo{r.s})
	})
}

// RunBilling ver billing.TxRunner.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	return r.run(func() error {
		return fn(UserRepo{r.s}, PaymentRepo{r.s})
	})
}

// RunShop ver usecase.ShopTxRunner.
func (r *TxRunner) RunShop(ctx context.Context, fn func(
	shopRepo repository.ShopRepository,
	userRepo repository.UserRepository,
) error) error {
	return r.run(func() error {
		return fn(ShopRepo{r.s}, UserRepo{r.s})
	})
}
