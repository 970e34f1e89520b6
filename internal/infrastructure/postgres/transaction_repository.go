package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `id, shop_id, user_id, customer_id, payment_type, status,
	total_price, cost_total, discount, profit, created_at, updated_at`

// TransactionRepo implementación de TransactionRepository (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste la cabecera de la venta (totales en cero hasta UpdateTotals).
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transactions (id, shop_id, user_id, customer_id, payment_type, status,
			total_price, cost_total, discount, profit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.ShopID, t.UserID, nullable(t.CustomerID), t.PaymentType, t.Status,
		t.TotalPrice, t.CostTotal, t.Discount, t.Profit, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de venta.
func (r *TransactionRepo) CreateItem(ctx context.Context, it *entity.TransactionItem) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transaction_items (id, transaction_id, product_id, quantity, price_at_sale, cost_at_sale, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.TransactionID, it.ProductID, it.Quantity, it.PriceAtSale, it.CostAtSale, it.Discount,
	)
	if err != nil {
		return fmt.Errorf("insert transaction item: %w", err)
	}
	return nil
}

// UpdateTotals rellena los totales de la cabecera.
func (r *TransactionRepo) UpdateTotals(ctx context.Context, t *entity.Transaction) error {
	query := `
		UPDATE transactions
		SET total_price = $2,
		    cost_total  = $3,
		    discount    = $4,
		    profit      = $5,
		    updated_at  = NOW()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, t.ID, t.TotalPrice, t.CostTotal, t.Discount, t.Profit)
	if err != nil {
		return fmt.Errorf("update transaction totals: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus cambia el estado de la venta.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE transactions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene la venta con sus líneas.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	t, err := r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil || t == nil {
		return t, err
	}
	t.Items, err = r.ListItems(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetForUpdate obtiene la cabecera con la fila bloqueada.
func (r *TransactionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

// ListItems devuelve las líneas de una venta con el nombre actual del producto.
func (r *TransactionRepo) ListItems(ctx context.Context, transactionID string) ([]entity.TransactionItem, error) {
	byTx, err := r.itemsFor(ctx, []string{transactionID})
	if err != nil {
		return nil, err
	}
	return byTx[transactionID], nil
}

// ListByUser devuelve las ventas del usuario, más recientes primero, con sus líneas.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var list []*entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, len(list))
	for i, t := range list {
		ids[i] = t.ID
	}
	byTx, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		t.Items = byTx[t.ID]
	}
	return list, nil
}

// itemsFor carga en una sola consulta las líneas de varias ventas.
func (r *TransactionRepo) itemsFor(ctx context.Context, ids []string) (map[string][]entity.TransactionItem, error) {
	query := `
		SELECT i.id, i.transaction_id, i.product_id, COALESCE(p.name, ''), i.quantity,
			i.price_at_sale, i.cost_at_sale, i.discount
		FROM transaction_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.transaction_id = ANY($1::uuid[])
		ORDER BY i.transaction_id, i.id`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list transaction items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.TransactionItem, len(ids))
	for rows.Next() {
		var it entity.TransactionItem
		if err := rows.Scan(
			&it.ID, &it.TransactionID, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.PriceAtSale, &it.CostAtSale, &it.Discount,
		); err != nil {
			return nil, fmt.Errorf("scan transaction item: %w", err)
		}
		out[it.TransactionID] = append(out[it.TransactionID], it)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var t entity.Transaction
	var customerID *string
	err := row.Scan(
		&t.ID, &t.ShopID, &t.UserID, &customerID, &t.PaymentType, &t.Status,
		&t.TotalPrice, &t.CostTotal, &t.Discount, &t.Profit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.CustomerID = deref(customerID)
	return &t, nil
}
