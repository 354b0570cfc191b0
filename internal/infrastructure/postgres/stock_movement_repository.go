package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo diario append-only en stock_movements.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// CreateBatch inserta todos los asientos con COPY.
func (r *StockMovementRepo) CreateBatch(ctx context.Context, movements []*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []any{
			m.ID, m.TenantID, m.StockDocID, string(m.DocType), m.Phase, nullIfEmpty(m.LineID), m.LineNo,
			m.WarehouseID, m.VariantID, string(m.Bucket), m.Quantity, m.UnitCost, m.TotalCost,
			m.CreatedAt, m.CreatedBy,
		})
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"stock_movements"},
		[]string{
			"id", "tenant_id", "stock_doc_id", "doc_type", "phase", "line_id", "line_no",
			"warehouse_id", "variant_id", "bucket", "quantity", "unit_cost", "total_cost",
			"created_at", "created_by",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert stock movements: %w", err)
	}
	return nil
}

// ListByDoc asientos de un documento en orden de aplicación.
func (r *StockMovementRepo) ListByDoc(ctx context.Context, tenantID, docID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, tenant_id, stock_doc_id, doc_type, phase, line_id, line_no,
			warehouse_id, variant_id, bucket, quantity, unit_cost, total_cost, created_at, created_by
		FROM stock_movements
		WHERE tenant_id = $1 AND stock_doc_id = $2
		ORDER BY created_at, seq`
	rows, err := r.q.Query(ctx, query, tenantID, docID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		var (
			m               entity.StockMovement
			docType, bucket string
			lineID          *string
		)
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.StockDocID, &docType, &m.Phase, &lineID, &m.LineNo,
			&m.WarehouseID, &m.VariantID, &bucket, &m.Quantity, &m.UnitCost, &m.TotalCost, &m.CreatedAt, &m.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.DocType, m.Bucket, m.LineID = entity.DocType(docType), entity.Bucket(bucket), derefString(lineID)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return out, nil
}
