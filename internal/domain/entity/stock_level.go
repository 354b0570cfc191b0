package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket sub-ledger de una bodega+variante.
type Bucket string

const (
	BucketOnHand     Bucket = "ON_HAND"
	BucketInTransit  Bucket = "IN_TRANSIT"
	BucketTruckStock Bucket = "TRUCK_STOCK"
	BucketQuarantine Bucket = "QUARANTINE"
)

// Buckets orden canónico de los buckets (también es el orden de bloqueo).
var Buckets = []Bucket{BucketOnHand, BucketInTransit, BucketTruckStock, BucketQuarantine}

// Valid indica si el bucket es uno de los conocidos.
func (b Bucket) Valid() bool {
	switch b {
	case BucketOnHand, BucketInTransit, BucketTruckStock, BucketQuarantine:
		return true
	}
	return false
}

func (b Bucket) rank() int {
	for i, x := range Buckets {
		if x == b {
			return i
		}
	}
	return len(Buckets)
}

// StockKey identifica una fila del ledger: (tenant, bodega, variante, bucket).
type StockKey struct {
	TenantID    string
	WarehouseID string
	VariantID   string
	Bucket      Bucket
}

// Less orden fijo de bloqueo: bodega, luego variante, luego bucket.
func (k StockKey) Less(o StockKey) bool {
	if k.TenantID != o.TenantID {
		return k.TenantID < o.TenantID
	}
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	if k.VariantID != o.VariantID {
		return k.VariantID < o.VariantID
	}
	return k.Bucket.rank() < o.Bucket.rank()
}

// StockLevel cantidad y costo autoritativos por StockKey.
// Invariante: AvailableQty = Quantity - ReservedQty siempre (ver Recompute).
type StockLevel struct {
	ID                  string
	TenantID            string
	WarehouseID         string
	VariantID           string
	Bucket              Bucket
	Quantity            decimal.Decimal // con signo: un ajuste puede dejarla negativa
	ReservedQty         decimal.Decimal
	AvailableQty        decimal.Decimal
	UnitCost            decimal.Decimal // promedio ponderado
	TotalCost           decimal.Decimal
	LastTransactionDate *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewStockLevel fila vacía para una clave (aún no persistida).
func NewStockLevel(id string, key StockKey, now time.Time) *StockLevel {
	return &StockLevel{
		ID:           id,
		TenantID:     key.TenantID,
		WarehouseID:  key.WarehouseID,
		VariantID:    key.VariantID,
		Bucket:       key.Bucket,
		Quantity:     decimal.Zero,
		ReservedQty:  decimal.Zero,
		AvailableQty: decimal.Zero,
		UnitCost:     decimal.Zero,
		TotalCost:    decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Key devuelve la clave de la fila.
func (l *StockLevel) Key() StockKey {
	return StockKey{TenantID: l.TenantID, WarehouseID: l.WarehouseID, VariantID: l.VariantID, Bucket: l.Bucket}
}

// CostScale decimales de unit_cost y total_cost en el esquema (NUMERIC(18,6) / NUMERIC(20,6)).
const CostScale int32 = 6

// Recompute recalcula los campos derivados (disponible y costo total).
func (l *StockLevel) Recompute() {
	l.AvailableQty = l.Quantity.Sub(l.ReservedQty)
	l.TotalCost = l.Quantity.Mul(l.UnitCost).Round(CostScale)
}

// IsEmpty sin cantidad ni reservas (candidata a limpieza administrativa).
func (l *StockLevel) IsEmpty() bool {
	return l.Quantity.IsZero() && l.ReservedQty.IsZero()
}

// Clone copia profunda (los punteros de fecha se duplican).
func (l *StockLevel) Clone() *StockLevel {
	c := *l
	if l.LastTransactionDate != nil {
		t := *l.LastTransactionDate
		c.LastTransactionDate = &t
	}
	return &c
}

// BucketTotals totales de un bucket dentro de un resumen.
type BucketTotals struct {
	Bucket       Bucket          `json:"bucket"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReservedQty  decimal.Decimal `json:"reserved_qty"`
	AvailableQty decimal.Decimal `json:"available_qty"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// StockLevelSummary resumen derivado (no persistido) de todos los buckets de una bodega+variante.
type StockLevelSummary struct {
	TenantID       string
	WarehouseID    string
	VariantID      string
	Buckets        []BucketTotals
	TotalQuantity  decimal.Decimal
	TotalReserved  decimal.Decimal
	TotalAvailable decimal.Decimal
	TotalCost      decimal.Decimal
	WeightedCost   decimal.Decimal
}
