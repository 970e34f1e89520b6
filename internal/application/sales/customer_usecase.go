package sales

import (
	"context"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// CustomerUseCase consultas de deudores de la tienda. Se crean solo desde ventas a crédito.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// List lista los clientes de la tienda con su deuda acumulada.
func (uc *CustomerUseCase) List(ctx context.Context, shopID string, page dto.PageRequest) ([]dto.CustomerResponse, error) {
	page.DefaultPage()
	if shopID == "" {
		return []dto.CustomerResponse{}, nil
	}
	list, err := uc.repo.ListByShop(ctx, shopID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// GetByID obtiene un cliente de la tienda de la sesión.
func (uc *CustomerUseCase) GetByID(ctx context.Context, shopID, id string) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || shopID == "" || c.ShopID != shopID {
		return nil, domain.ErrNotFound
	}
	out := toCustomerResponse(c)
	return &out, nil
}

func toCustomerResponse(c *entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        c.ID,
		ShopID:    c.ShopID,
		FullName:  c.Name,
		Phone:     c.Phone,
		TotalDebt: c.TotalDebt,
		CreatedAt: c.CreatedAt,
	}
}
