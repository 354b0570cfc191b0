package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

// nextDocNo asigna el siguiente número del tipo dentro de la transacción de creación.
// LockNumbering serializa a los creadores concurrentes del mismo (tenant, tipo); la
// restricción única de la tabla respalda la garantía.
func nextDocNo(ctx context.Context, docRepo repository.StockDocRepository, tenantID string, docType entity.DocType) (string, error) {
	rule, ok := inventory.RuleFor(docType)
	if !ok {
		return "", domain.NewValidation("doc_type", "tipo de documento desconocido: "+string(docType))
	}
	if err := docRepo.LockNumbering(ctx, tenantID, docType); err != nil {
		return "", fmt.Errorf("lock numbering: %w", err)
	}
	maxDocNo, err := docRepo.MaxDocNo(ctx, tenantID, docType, rule.Prefix)
	if err != nil {
		return "", fmt.Errorf("max doc no: %w", err)
	}
	return inventory.NextDocNo(rule.Prefix, maxDocNo), nil
}
