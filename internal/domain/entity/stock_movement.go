package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMovement asiento del diario de movimientos: una fila por pierna aplicada al ledger.
// Es append-only; las correcciones se hacen con un nuevo documento de ajuste.
type StockMovement struct {
	ID          string
	TenantID    string
	StockDocID  string
	DocType     DocType
	Phase       string // POST, SHIP, RECEIVE
	LineID      string
	LineNo      int
	WarehouseID string
	VariantID   string
	Bucket      Bucket
	Quantity    decimal.Decimal // positivo entrada, negativo salida
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
	CreatedAt   time.Time
	CreatedBy   string
}
