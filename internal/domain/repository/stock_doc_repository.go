package repository

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// StockDocFilter filtros para listar documentos.
type StockDocFilter struct {
	DocType   entity.DocType
	DocStatus entity.DocStatus
	Limit     int
	Offset    int
}

// StockDocRepository puerto de persistencia de documentos y sus líneas (en orden de creación).
type StockDocRepository interface {
	Create(ctx context.Context, doc *entity.StockDoc) error
	// Update guarda cabecera y reemplaza las líneas.
	Update(ctx context.Context, doc *entity.StockDoc) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockDoc, error)
	// GetForUpdate bloquea la cabecera del documento.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockDoc, error)
	List(ctx context.Context, tenantID string, filter StockDocFilter) ([]*entity.StockDoc, error)

	// LockNumbering serializa la numeración por (tenant, tipo) hasta el fin de la transacción.
	LockNumbering(ctx context.Context, tenantID string, docType entity.DocType) error
	// MaxDocNo mayor número existente con el prefijo; vacío si no hay.
	MaxDocNo(ctx context.Context, tenantID string, docType entity.DocType, prefix string) (string, error)
}
