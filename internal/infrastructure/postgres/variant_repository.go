package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var _ repository.VariantRepository = (*VariantRepo)(nil)

// VariantRepo lectura del catálogo de variantes.
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador.
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

const variantColumns = `
	id, tenant_id, sku, name, gas_type, capacity_kg, role, paired_variant_id, active, created_at, updated_at`

// GetByID variante del tenant; nil si no existe.
func (r *VariantRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE tenant_id = $1 AND id = $2`
	v, err := scanVariant(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

// GetBulkByGasType variante granel activa del gas; con varias gana la de menor id.
func (r *VariantRepo) GetBulkByGasType(ctx context.Context, tenantID, gasType string) (*entity.Variant, error) {
	query := `SELECT ` + variantColumns + `
		FROM variants
		WHERE tenant_id = $1 AND gas_type = $2 AND role = 'BULK' AND active
		ORDER BY id
		LIMIT 1`
	v, err := scanVariant(r.q.QueryRow(ctx, query, tenantID, gasType))
	if err != nil {
		return nil, fmt.Errorf("get bulk variant: %w", err)
	}
	return v, nil
}

func scanVariant(row pgx.Row) (*entity.Variant, error) {
	var (
		v       entity.Variant
		role    string
		gasType *string
		paired  *string
	)
	err := row.Scan(&v.ID, &v.TenantID, &v.SKU, &v.Name, &gasType, &v.CapacityKg, &role, &paired, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	v.Role = entity.VariantRole(role)
	v.GasType, v.PairedVariantID = derefString(gasType), derefString(paired)
	return &v, nil
}
