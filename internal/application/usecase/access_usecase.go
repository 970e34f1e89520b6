package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// AccessService resuelve el estado de la sesión desde la BD: tienda actual y si la cuenta
// está activa (suscripción pagada). Es el único punto que decide el ámbito de una petición.
type AccessService struct {
	userRepo repository.UserRepository
}

// NewAccessService construye el servicio de acceso.
func NewAccessService(userRepo repository.UserRepository) *AccessService {
	return &AccessService{userRepo: userRepo}
}

// Session devuelve el usuario vigente. (nil, nil) si el usuario ya no existe.
// Devuelve error solo ante fallos de infraestructura (DB caída, timeout, etc.).
func (s *AccessService) Session(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("access: userID es obligatorio")
	}
	return s.userRepo.GetByID(ctx, userID)
}
