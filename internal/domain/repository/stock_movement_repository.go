package repository

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// StockMovementRepository diario append-only de piernas aplicadas.
type StockMovementRepository interface {
	CreateBatch(ctx context.Context, movements []*entity.StockMovement) error
	ListByDoc(ctx context.Context, tenantID, docID string) ([]*entity.StockMovement, error)
}
