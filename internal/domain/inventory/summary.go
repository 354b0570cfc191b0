package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// Summarize consolida todos los buckets de una bodega+variante. Es una función pura:
// no valida que las filas pertenezcan a la misma clave, eso lo garantiza el repositorio.
// El costo ponderado es costo total / cantidad total, cero si la cantidad es cero.
func Summarize(tenantID, warehouseID, variantID string, levels []*entity.StockLevel) entity.StockLevelSummary {
	s := entity.StockLevelSummary{
		TenantID:       tenantID,
		WarehouseID:    warehouseID,
		VariantID:      variantID,
		TotalQuantity:  decimal.Zero,
		TotalReserved:  decimal.Zero,
		TotalAvailable: decimal.Zero,
		TotalCost:      decimal.Zero,
		WeightedCost:   decimal.Zero,
	}

	byBucket := make(map[entity.Bucket]*entity.BucketTotals, len(entity.Buckets))
	for _, b := range entity.Buckets {
		byBucket[b] = &entity.BucketTotals{
			Bucket:       b,
			Quantity:     decimal.Zero,
			ReservedQty:  decimal.Zero,
			AvailableQty: decimal.Zero,
			TotalCost:    decimal.Zero,
		}
	}

	for _, l := range levels {
		t, ok := byBucket[l.Bucket]
		if !ok {
			continue
		}
		t.Quantity = t.Quantity.Add(l.Quantity)
		t.ReservedQty = t.ReservedQty.Add(l.ReservedQty)
		t.AvailableQty = t.AvailableQty.Add(l.AvailableQty)
		t.TotalCost = t.TotalCost.Add(l.TotalCost)

		s.TotalQuantity = s.TotalQuantity.Add(l.Quantity)
		s.TotalReserved = s.TotalReserved.Add(l.ReservedQty)
		s.TotalAvailable = s.TotalAvailable.Add(l.AvailableQty)
		s.TotalCost = s.TotalCost.Add(l.TotalCost)
	}

	s.Buckets = make([]entity.BucketTotals, 0, len(entity.Buckets))
	for _, b := range entity.Buckets {
		s.Buckets = append(s.Buckets, *byBucket[b])
	}
	if !s.TotalQuantity.IsZero() {
		s.WeightedCost = s.TotalCost.Div(s.TotalQuantity)
	}
	return s
}
