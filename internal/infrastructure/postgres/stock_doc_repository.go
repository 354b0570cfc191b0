package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var _ repository.StockDocRepository = (*StockDocRepo)(nil)

// StockDocRepo documentos en stock_docs y sus líneas en stock_doc_lines.
type StockDocRepo struct {
	q Querier
}

// NewStockDocRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockDocRepository(q Querier) *StockDocRepo {
	return &StockDocRepo{q: q}
}

const stockDocColumns = `
	id, tenant_id, doc_no, doc_type, doc_status,
	source_wh_id, dest_wh_id, ref_doc_id, ref_doc_type, notes,
	created_at, created_by, updated_at, processed_at, processed_by, cancelled_at, cancelled_by`

// Create inserta cabecera y líneas. La restricción única (tenant_id, doc_type, doc_no)
// se traduce a domain.ErrConflict.
func (r *StockDocRepo) Create(ctx context.Context, d *entity.StockDoc) error {
	query := `
		INSERT INTO stock_docs (` + stockDocColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.TenantID, d.DocNo, string(d.DocType), string(d.DocStatus),
		nullIfEmpty(d.SourceWhID), nullIfEmpty(d.DestWhID), nullIfEmpty(d.RefDocID), nullIfEmpty(d.RefDocType), d.Notes,
		d.CreatedAt, d.CreatedBy, d.UpdatedAt, d.ProcessedAt, nullIfEmpty(d.ProcessedBy), d.CancelledAt, nullIfEmpty(d.CancelledBy),
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("insert stock doc: %w", err))
	}
	return r.insertLines(ctx, d)
}

// Update guarda la cabecera y reemplaza las líneas.
func (r *StockDocRepo) Update(ctx context.Context, d *entity.StockDoc) error {
	query := `
		UPDATE stock_docs SET
			doc_status = $3, source_wh_id = $4, dest_wh_id = $5, ref_doc_id = $6, ref_doc_type = $7, notes = $8,
			updated_at = $9, processed_at = $10, processed_by = $11, cancelled_at = $12, cancelled_by = $13
		WHERE tenant_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query,
		d.TenantID, d.ID, string(d.DocStatus),
		nullIfEmpty(d.SourceWhID), nullIfEmpty(d.DestWhID), nullIfEmpty(d.RefDocID), nullIfEmpty(d.RefDocType), d.Notes,
		d.UpdatedAt, d.ProcessedAt, nullIfEmpty(d.ProcessedBy), d.CancelledAt, nullIfEmpty(d.CancelledBy),
	)
	if err != nil {
		return fmt.Errorf("update stock doc: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock doc %s: %w", d.ID, pgx.ErrNoRows)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_doc_lines WHERE stock_doc_id = $1`, d.ID); err != nil {
		return fmt.Errorf("delete stock doc lines: %w", err)
	}
	return r.insertLines(ctx, d)
}

func (r *StockDocRepo) insertLines(ctx context.Context, d *entity.StockDoc) error {
	if len(d.Lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO stock_doc_lines (id, stock_doc_id, line_no, variant_id, gas_type, quantity, unit_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	batch := &pgx.Batch{}
	for _, l := range d.Lines {
		batch.Queue(query, l.ID, d.ID, l.LineNo, nullIfEmpty(l.VariantID), nullIfEmpty(l.GasType), l.Quantity, l.UnitCost, l.CreatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range d.Lines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert stock doc line: %w", err)
		}
	}
	return nil
}

// GetByID cabecera y líneas; nil si no existe en el tenant.
func (r *StockDocRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockDoc, error) {
	return r.get(ctx, `SELECT `+stockDocColumns+` FROM stock_docs WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE) antes de cargar las líneas.
func (r *StockDocRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockDoc, error) {
	return r.get(ctx, `SELECT `+stockDocColumns+` FROM stock_docs WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *StockDocRepo) get(ctx context.Context, query, tenantID, id string) (*entity.StockDoc, error) {
	d, err := scanStockDoc(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock doc: %w", err)
	}
	if d.Lines, err = r.lines(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *StockDocRepo) lines(ctx context.Context, docID string) ([]entity.StockDocLine, error) {
	query := `
		SELECT id, stock_doc_id, line_no, variant_id, gas_type, quantity, unit_cost, created_at
		FROM stock_doc_lines WHERE stock_doc_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("list stock doc lines: %w", err)
	}
	defer rows.Close()
	var out []entity.StockDocLine
	for rows.Next() {
		var (
			l                entity.StockDocLine
			variantID, gasTp *string
		)
		if err := rows.Scan(&l.ID, &l.StockDocID, &l.LineNo, &variantID, &gasTp, &l.Quantity, &l.UnitCost, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock doc line: %w", err)
		}
		l.VariantID, l.GasType = derefString(variantID), derefString(gasTp)
		out = append(out, l)
	}
	return out, rows.Err()
}

// List cabeceras (con líneas) más recientes primero.
func (r *StockDocRepo) List(ctx context.Context, tenantID string, f repository.StockDocFilter) ([]*entity.StockDoc, error) {
	query := `SELECT ` + stockDocColumns + `
		FROM stock_docs
		WHERE tenant_id = $1
		  AND ($2 = '' OR doc_type = $2)
		  AND ($3 = '' OR doc_status = $3)
		ORDER BY created_at DESC, doc_no DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, tenantID, string(f.DocType), string(f.DocStatus), f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list stock docs: %w", err)
	}
	var out []*entity.StockDoc
	for rows.Next() {
		d, err := scanStockDoc(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stock doc: %w", err)
		}
		out = append(out, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock docs: %w", err)
	}
	for _, d := range out {
		if d.Lines, err = r.lines(ctx, d.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LockNumbering advisory lock de transacción por (tenant, tipo); se libera en Commit/Rollback.
func (r *StockDocRepo) LockNumbering(ctx context.Context, tenantID string, docType entity.DocType) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "stock_doc_no:"+tenantID+":"+string(docType))
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

// MaxDocNo ordena por la parte numérica del sufijo; vacío si no hay documentos del tipo.
func (r *StockDocRepo) MaxDocNo(ctx context.Context, tenantID string, docType entity.DocType, prefix string) (string, error) {
	query := `
		SELECT doc_no FROM stock_docs
		WHERE tenant_id = $1 AND doc_type = $2 AND doc_no ~ ('^' || $3 || '-[0-9]+$')
		ORDER BY CAST(substring(doc_no FROM length($3) + 2) AS BIGINT) DESC
		LIMIT 1`
	var docNo string
	err := r.q.QueryRow(ctx, query, tenantID, string(docType), prefix).Scan(&docNo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("max doc no: %w", err)
	}
	return docNo, nil
}

func scanStockDoc(row pgx.Row) (*entity.StockDoc, error) {
	var (
		d                            entity.StockDoc
		docType, docStatus           string
		srcWh, dstWh, refID, refType *string
		processedBy, cancelledBy     *string
	)
	err := row.Scan(
		&d.ID, &d.TenantID, &d.DocNo, &docType, &docStatus,
		&srcWh, &dstWh, &refID, &refType, &d.Notes,
		&d.CreatedAt, &d.CreatedBy, &d.UpdatedAt, &d.ProcessedAt, &processedBy, &d.CancelledAt, &cancelledBy,
	)
	if err != nil {
		return nil, err
	}
	d.DocType, d.DocStatus = entity.DocType(docType), entity.DocStatus(docStatus)
	d.SourceWhID, d.DestWhID = derefString(srcWh), derefString(dstWh)
	d.RefDocID, d.RefDocType = derefString(refID), derefString(refType)
	d.ProcessedBy, d.CancelledBy = derefString(processedBy), derefString(cancelledBy)
	return &d, nil
}
