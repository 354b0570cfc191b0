package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo ledger sobre la tabla stock_levels (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const stockLevelColumns = `
	id, tenant_id, warehouse_id, variant_id, bucket,
	quantity, reserved_qty, available_qty, unit_cost, total_cost,
	last_transaction_date, created_at, updated_at`

const stockLevelKeyWhere = `tenant_id = $1 AND warehouse_id = $2 AND variant_id = $3 AND bucket = $4`

// Get obtiene la fila sin bloquear; nil si no existe.
func (r *StockLevelRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE ` + stockLevelKeyWhere
	l, err := scanStockLevel(r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.VariantID, string(key.Bucket)))
	if err != nil {
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return l, nil
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE); nil si no existe.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE ` + stockLevelKeyWhere + ` FOR UPDATE`
	l, err := scanStockLevel(r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.VariantID, string(key.Bucket)))
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return l, nil
}

// EnsureForUpdate crea la fila vacía si falta (ON CONFLICT DO NOTHING) y luego la bloquea,
// así también las filas nuevas quedan bajo el bloqueo de la transacción.
func (r *StockLevelRepo) EnsureForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (id, tenant_id, warehouse_id, variant_id, bucket,
			quantity, reserved_qty, available_qty, unit_cost, total_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, 0, 0, now(), now())
		ON CONFLICT (tenant_id, warehouse_id, variant_id, bucket) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, uuid.New().String(), key.TenantID, key.WarehouseID, key.VariantID, string(key.Bucket)); err != nil {
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}
	return r.GetForUpdate(ctx, key)
}

// Upsert inserta o actualiza la fila por su clave.
func (r *StockLevelRepo) Upsert(ctx context.Context, l *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (id, tenant_id, warehouse_id, variant_id, bucket,
			quantity, reserved_qty, available_qty, unit_cost, total_cost,
			last_transaction_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id, warehouse_id, variant_id, bucket) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			reserved_qty = EXCLUDED.reserved_qty,
			available_qty = EXCLUDED.available_qty,
			unit_cost = EXCLUDED.unit_cost,
			total_cost = EXCLUDED.total_cost,
			last_transaction_date = EXCLUDED.last_transaction_date,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.TenantID, l.WarehouseID, l.VariantID, string(l.Bucket),
		l.Quantity, l.ReservedQty, l.AvailableQty, l.UnitCost, l.TotalCost,
		l.LastTransactionDate, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByWarehouseVariant todos los buckets de una bodega+variante.
func (r *StockLevelRepo) ListByWarehouseVariant(ctx context.Context, tenantID, warehouseID, variantID string) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + `
		FROM stock_levels
		WHERE tenant_id = $1 AND warehouse_id = $2 AND variant_id = $3
		ORDER BY bucket`
	return r.list(ctx, "list stock levels by variant", query, tenantID, warehouseID, variantID)
}

// ListByWarehouse filas de una bodega ordenadas por variante y bucket.
func (r *StockLevelRepo) ListByWarehouse(ctx context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + `
		FROM stock_levels
		WHERE tenant_id = $1 AND warehouse_id = $2
		ORDER BY variant_id, bucket
		LIMIT $3 OFFSET $4`
	return r.list(ctx, "list stock levels by warehouse", query, tenantID, warehouseID, limit, offset)
}

// DeleteEmpty borra las filas sin cantidad ni reservas de la bodega.
func (r *StockLevelRepo) DeleteEmpty(ctx context.Context, tenantID, warehouseID string) (int64, error) {
	query := `
		DELETE FROM stock_levels
		WHERE tenant_id = $1 AND warehouse_id = $2 AND quantity = 0 AND reserved_qty = 0`
	tag, err := r.q.Exec(ctx, query, tenantID, warehouseID)
	if err != nil {
		return 0, fmt.Errorf("delete empty stock levels: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *StockLevelRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*entity.StockLevel
	for rows.Next() {
		l, err := scanStockLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// scanStockLevel pgx.ErrNoRows -> nil, nil.
func scanStockLevel(row pgx.Row) (*entity.StockLevel, error) {
	var (
		l      entity.StockLevel
		bucket string
	)
	err := row.Scan(
		&l.ID, &l.TenantID, &l.WarehouseID, &l.VariantID, &bucket,
		&l.Quantity, &l.ReservedQty, &l.AvailableQty, &l.UnitCost, &l.TotalCost,
		&l.LastTransactionDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	l.Bucket = entity.Bucket(bucket)
	return &l, nil
}
