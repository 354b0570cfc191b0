package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento que recibe el colaborador de auditoría.
const (
	EventDocumentCreated   = "document.created"
	EventDocumentPosted    = "document.posted"
	EventDocumentShipped   = "document.shipped"
	EventDocumentReceived  = "document.received"
	EventDocumentCancelled = "document.cancelled"
	EventStockLevelChanged = "stock_level.changed"
	EventStockReserved     = "stock.reserved"
	EventStockReleased     = "stock.released"
)

// StockEvent evento de auditoría; se emite después del commit y nunca bloquea el posteo.
type StockEvent struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	TenantID    string           `json:"tenant_id"`
	Actor       string           `json:"actor,omitempty"`
	DocID       string           `json:"doc_id,omitempty"`
	DocNo       string           `json:"doc_no,omitempty"`
	DocType     DocType          `json:"doc_type,omitempty"`
	DocStatus   DocStatus        `json:"doc_status,omitempty"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	VariantID   string           `json:"variant_id,omitempty"`
	Bucket      Bucket           `json:"bucket,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Available   *decimal.Decimal `json:"available,omitempty"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
