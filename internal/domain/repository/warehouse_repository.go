package repository

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// WarehouseRepository puerto de lectura de bodegas (DIP).
type WarehouseRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Warehouse, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Warehouse, error)
}
