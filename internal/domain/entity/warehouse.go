package entity

import "time"

// Tipos de bodega: depósito fijo o camión (bodega móvil).
const (
	WarehouseKindDepot = "DEPOT"
	WarehouseKindTruck = "TRUCK"
)

// Warehouse bodega de un tenant. Los camiones se modelan como bodegas de tipo TRUCK.
type Warehouse struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	Address   string
	Kind      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
