package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo log de auditoría de stock (usable con pool o tx). Solo inserta y lista.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, shop_id, user_id, type, quantity, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.ShopID, m.UserID, m.Type, m.Quantity, m.Reason, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// List devuelve los movimientos más recientes primero, con nombres de producto, usuario y tienda.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovementView, error) {
	query := `
		SELECT m.id, m.product_id, m.shop_id, m.user_id, m.type, m.quantity, m.reason, m.created_at,
			COALESCE(p.name, ''), COALESCE(u.full_name, ''), COALESCE(s.name, '')
		FROM stock_movements m
		LEFT JOIN products p ON p.id = m.product_id
		LEFT JOIN users    u ON u.id = m.user_id
		LEFT JOIN shops    s ON s.id = m.shop_id
		WHERE `
	var args []any
	if f.ShopID != "" {
		args = append(args, f.ShopID)
		query += fmt.Sprintf("m.shop_id = $%d", len(args))
	} else {
		args = append(args, f.UserID)
		query += fmt.Sprintf("m.user_id = $%d", len(args))
	}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		query += fmt.Sprintf(" AND m.product_id = $%d", len(args))
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovementView
	for rows.Next() {
		var v entity.StockMovementView
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.ShopID, &v.UserID, &v.Type, &v.Quantity, &v.Reason, &v.CreatedAt,
			&v.ProductName, &v.UserName, &v.ShopName,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}
