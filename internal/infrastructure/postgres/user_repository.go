package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, phone, full_name, password_hash, role, is_active, is_shop, shop_id,
	balance, invoice_code, paid_until, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL (usable con pool o tx).
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario. Teléfono o código de factura repetidos devuelven domain.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (id, phone, full_name, password_hash, role, is_active, is_shop, shop_id,
			balance, invoice_code, paid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.Phone, u.FullName, u.PasswordHash, u.Role, u.IsActive, u.IsShop, nullable(u.ShopID),
		u.Balance, u.InvoiceCode, u.PaidUntil, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetForUpdate obtiene el usuario bloqueando su fila hasta el fin de la tx.
func (r *UserRepo) GetForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

// GetByPhone obtiene un usuario por teléfono.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

// InvoiceCodeExists indica si el código de factura ya está asignado.
func (r *UserRepo) InvoiceCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE invoice_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice code: %w", err)
	}
	return exists, nil
}

// UpdatePassword reemplaza el hash de la contraseña.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

// AttachShop marca al usuario como dueño de tienda con shopID como tienda de la sesión.
func (r *UserRepo) AttachShop(ctx context.Context, id, shopID string) error {
	return r.exec(ctx, "attach shop",
		`UPDATE users SET is_shop = TRUE, shop_id = $2, updated_at = NOW() WHERE id = $1`, id, shopID)
}

// UpdateBalance fija el saldo.
func (r *UserRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return r.exec(ctx, "update balance",
		`UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
}

// ChargeSubscription fija el saldo tras el cobro y extiende paid_until.
func (r *UserRepo) ChargeSubscription(ctx context.Context, id string, balance decimal.Decimal, paidUntil time.Time) error {
	return r.exec(ctx, "charge subscription",
		`UPDATE users SET balance = $2, paid_until = $3, updated_at = NOW() WHERE id = $1`,
		id, balance, paidUntil)
}

// SetActive activa o desactiva la cuenta.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, "set active",
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

// ListDueForUpdate pagina por id (keyset) los usuarios activos con el período vencido y bloquea sus filas.
func (r *UserRepo) ListDueForUpdate(ctx context.Context, afterID string, now time.Time, limit int) ([]*entity.User, error) {
	if afterID == "" {
		afterID = nilUUID
	}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_active AND id > $1 AND (paid_until IS NULL OR paid_until <= $2)
		ORDER BY id
		LIMIT $3
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, afterID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	var shopID *string
	err := row.Scan(
		&u.ID, &u.Phone, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.IsShop, &shopID,
		&u.Balance, &u.InvoiceCode, &u.PaidUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ShopID = deref(shopID)
	return &u, nil
}
