package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// VariantRole rol explícito de la variante dentro del ciclo del cilindro.
// La conversión vacío -> lleno se resuelve con este atributo, nunca con el SKU.
type VariantRole string

const (
	VariantRoleEmpty VariantRole = "EMPTY" // cilindro vacío
	VariantRoleFull  VariantRole = "FULL"  // cilindro lleno
	VariantRoleBulk  VariantRole = "BULK"  // gas a granel (líneas por gas_type)
	VariantRoleOther VariantRole = "OTHER" // accesorios, válvulas, etc.
)

// Variant presentación de inventario (p. ej. cilindro 13 kg lleno).
// PairedVariantID enlaza el vacío con su lleno del mismo tamaño.
type Variant struct {
	ID              string
	TenantID        string
	SKU             string
	Name            string
	GasType         string
	CapacityKg      decimal.Decimal
	Role            VariantRole
	PairedVariantID string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
