package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
)

var _ inventory.AccessChecker = (*WarehouseAccessRepo)(nil)

// WarehouseAccessRepo permisos por bodega desde warehouse_grants.
type WarehouseAccessRepo struct {
	q Querier
}

// NewWarehouseAccessRepository construye el verificador de acceso.
func NewWarehouseAccessRepository(q Querier) *WarehouseAccessRepo {
	return &WarehouseAccessRepo{q: q}
}

// CanAccess true si el usuario tiene el rol sobre la bodega.
func (r *WarehouseAccessRepo) CanAccess(ctx context.Context, actor, warehouseID, role string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM warehouse_grants
			WHERE user_id = $1 AND warehouse_id = $2 AND role = $3
		)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, actor, warehouseID, role).Scan(&ok); err != nil {
		return false, fmt.Errorf("check warehouse access: %w", err)
	}
	return ok, nil
}
