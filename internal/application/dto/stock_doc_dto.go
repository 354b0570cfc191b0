package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockDocLineRequest línea de entrada: exactamente uno de variant_id o gas_type.
type StockDocLineRequest struct {
	VariantID string          `json:"variant_id,omitempty"`
	GasType   string          `json:"gas_type,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateStockDocRequest body para POST /api/stock-docs.
type CreateStockDocRequest struct {
	DocType    string                `json:"doc_type"`
	SourceWhID string                `json:"source_wh_id,omitempty"`
	DestWhID   string                `json:"dest_wh_id,omitempty"`
	RefDocID   string                `json:"ref_doc_id,omitempty"`
	RefDocType string                `json:"ref_doc_type,omitempty"`
	Notes      string                `json:"notes,omitempty"`
	Lines      []StockDocLineRequest `json:"lines"`
}

// ReplaceLinesRequest body para PUT /api/stock-docs/:id/lines.
type ReplaceLinesRequest struct {
	Lines []StockDocLineRequest `json:"lines"`
}

// StockDocFilterRequest filtros de listado (query string).
type StockDocFilterRequest struct {
	DocType   string `query:"doc_type"`
	DocStatus string `query:"status"`
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
}

// StockDocLineResponse salida de una línea.
type StockDocLineResponse struct {
	ID        string          `json:"id"`
	LineNo    int             `json:"line_no"`
	VariantID string          `json:"variant_id,omitempty"`
	GasType   string          `json:"gas_type,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// StockDocResponse salida de un documento con sus líneas.
type StockDocResponse struct {
	ID          string                 `json:"id"`
	TenantID    string                 `json:"tenant_id"`
	DocNo       string                 `json:"doc_no"`
	DocType     string                 `json:"doc_type"`
	DocStatus   string                 `json:"doc_status"`
	SourceWhID  string                 `json:"source_wh_id,omitempty"`
	DestWhID    string                 `json:"dest_wh_id,omitempty"`
	RefDocID    string                 `json:"ref_doc_id,omitempty"`
	RefDocType  string                 `json:"ref_doc_type,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
	Lines       []StockDocLineResponse `json:"lines"`
	CreatedAt   time.Time              `json:"created_at"`
	CreatedBy   string                 `json:"created_by"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	ProcessedBy string                 `json:"processed_by,omitempty"`
	CancelledAt *time.Time             `json:"cancelled_at,omitempty"`
	CancelledBy string                 `json:"cancelled_by,omitempty"`
}

// StockDocListResponse lista paginada de documentos.
type StockDocListResponse struct {
	Items []StockDocResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockMovementResponse asiento del diario de un documento.
type StockMovementResponse struct {
	ID          string          `json:"id"`
	Phase       string          `json:"phase"`
	LineNo      int             `json:"line_no"`
	WarehouseID string          `json:"warehouse_id"`
	VariantID   string          `json:"variant_id"`
	Bucket      string          `json:"bucket"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by"`
}

// StockMovementListResponse diario completo de un documento.
type StockMovementListResponse struct {
	Total     int                     `json:"total"`
	Movements []StockMovementResponse `json:"movements"`
}
