package repository

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// VariantRepository puerto de lectura de variantes del catálogo.
type VariantRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Variant, error)
	// GetBulkByGasType variante granel (rol BULK) de un tipo de gas.
	GetBulkByGasType(ctx context.Context, tenantID, gasType string) (*entity.Variant, error)
}
