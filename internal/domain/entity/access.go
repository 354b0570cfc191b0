package entity

import "time"

// Roles de acceso por bodega que evalúa el colaborador de autorización.
const (
	RoleStockReceive = "stock:receive" // entradas en la bodega
	RoleStockIssue   = "stock:issue"   // salidas desde la bodega
	RoleStockAdjust  = "stock:adjust"  // ajustes y conversiones
	RoleStockReserve = "stock:reserve" // reservas blandas
)

// Roles de la aplicación (claim "role" del JWT).
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// WarehouseGrant concede a un usuario un rol sobre una bodega.
type WarehouseGrant struct {
	TenantID    string
	UserID      string
	WarehouseID string
	Role        string
	CreatedAt   time.Time
}
