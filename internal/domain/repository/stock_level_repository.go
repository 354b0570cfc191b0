package repository

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// StockLevelRepository puerto del ledger por (tenant, bodega, variante, bucket).
// Las variantes ForUpdate sólo tienen sentido dentro de una transacción (TxRunner).
type StockLevelRepository interface {
	// Get devuelve nil, nil si la fila no existe.
	Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila; nil, nil si no existe (no la crea).
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)
	// EnsureForUpdate crea la fila vacía si falta y la bloquea.
	EnsureForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByWarehouseVariant(ctx context.Context, tenantID, warehouseID, variantID string) ([]*entity.StockLevel, error)
	ListByWarehouse(ctx context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error)
	// DeleteEmpty limpieza administrativa: borra filas sin cantidad ni reservas de la bodega.
	DeleteEmpty(ctx context.Context, tenantID, warehouseID string) (int64, error)
}
