package inventory

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ninguna escritura queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		levelRepo repository.StockLevelRepository,
		docRepo repository.StockDocRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// AccessChecker colaborador de autorización por bodega.
type AccessChecker interface {
	CanAccess(ctx context.Context, actor, warehouseID, role string) (bool, error)
}

// EventPublisher colaborador de auditoría. Publish no devuelve error: las fallas se
// registran en el log y nunca revierten un posteo ya confirmado.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.StockEvent)
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...entity.StockEvent) {}

// PrintRefs datos de catálogo que acompañan al documento impreso.
type PrintRefs struct {
	Source   *entity.Warehouse
	Dest     *entity.Warehouse
	Variants map[string]*entity.Variant
}

// DocumentPrinter genera la representación imprimible (PDF) de un documento.
type DocumentPrinter interface {
	PrintStockDoc(ctx context.Context, doc *entity.StockDoc, refs PrintRefs) ([]byte, error)
}
