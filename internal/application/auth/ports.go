package auth

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// OTPStore guarda los códigos pendientes con expiración.
// Get devuelve (nil, nil) si la clave no existe o expiró; Update conserva el TTL restante.
// IncrAttempts suma un intento de forma atómica y devuelve el total; si la entrada ya no
// existe devuelve domain.ErrInvalidOTP. Save y Delete reinician el contador.
type OTPStore interface {
	Save(ctx context.Context, pk string, entry entity.OTPEntry, ttl time.Duration) error
	Get(ctx context.Context, pk string) (*entity.OTPEntry, error)
	Update(ctx context.Context, pk string, entry entity.OTPEntry) error
	IncrAttempts(ctx context.Context, pk string) (int, error)
	Delete(ctx context.Context, pk string) error
}

// OTPSender entrega el texto con el código al teléfono del usuario (SMS, Telegram...).
type OTPSender interface {
	Send(ctx context.Context, phone, text string) error
}
