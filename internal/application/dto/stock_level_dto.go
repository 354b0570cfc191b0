package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevelResponse fila del ledger.
type StockLevelResponse struct {
	WarehouseID         string          `json:"warehouse_id"`
	VariantID           string          `json:"variant_id"`
	Bucket              string          `json:"bucket"`
	Quantity            decimal.Decimal `json:"quantity"`
	ReservedQty         decimal.Decimal `json:"reserved_qty"`
	AvailableQty        decimal.Decimal `json:"available_qty"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	LastTransactionDate *time.Time      `json:"last_transaction_date,omitempty"`
}

// StockLevelListResponse filas de una bodega, paginadas.
type StockLevelListResponse struct {
	Items []StockLevelResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// BucketTotalsResponse totales de un bucket dentro del resumen.
type BucketTotalsResponse struct {
	Bucket       string          `json:"bucket"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReservedQty  decimal.Decimal `json:"reserved_qty"`
	AvailableQty decimal.Decimal `json:"available_qty"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// StockSummaryResponse resumen de todos los buckets de una bodega+variante.
type StockSummaryResponse struct {
	WarehouseID    string                 `json:"warehouse_id"`
	VariantID      string                 `json:"variant_id"`
	Buckets        []BucketTotalsResponse `json:"buckets"`
	TotalQuantity  decimal.Decimal        `json:"total_quantity"`
	TotalReserved  decimal.Decimal        `json:"total_reserved"`
	TotalAvailable decimal.Decimal        `json:"total_available"`
	TotalCost      decimal.Decimal        `json:"total_cost"`
	WeightedCost   decimal.Decimal        `json:"weighted_cost"`
}

// ReserveStockRequest body para reservar o liberar. Bucket vacío = ON_HAND.
type ReserveStockRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	VariantID   string          `json:"variant_id"`
	Bucket      string          `json:"bucket,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ReserveStockResponse Granted=false cuando no alcanza el disponible (o lo reservado, al liberar).
type ReserveStockResponse struct {
	Granted bool                `json:"granted"`
	Level   *StockLevelResponse `json:"level,omitempty"`
}

// TransferStatusRequest movimiento entre buckets de la misma bodega (p. ej. a cuarentena).
type TransferStatusRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	VariantID   string          `json:"variant_id"`
	FromBucket  string          `json:"from_bucket"`
	ToBucket    string          `json:"to_bucket"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// TransferStatusResponse resultado del movimiento entre buckets.
type TransferStatusResponse struct {
	Moved bool `json:"moved"`
}

// PurgeEmptyLevelsResponse filas vacías eliminadas.
type PurgeEmptyLevelsResponse struct {
	Deleted int64 `json:"deleted"`
}
