package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

func level(b entity.Bucket, qty, reserved, cost string) *entity.StockLevel {
	l := &entity.StockLevel{TenantID: "t1", WarehouseID: "w1", VariantID: "v1", Bucket: b,
		Quantity: d(qty), ReservedQty: d(reserved), UnitCost: d(cost)}
	l.Recompute()
	return l
}

func TestSummarize(t *testing.T) {
	s := Summarize("t1", "w1", "v1", []*entity.StockLevel{
		level(entity.BucketOnHand, "10", "2", "6"),
		level(entity.BucketQuarantine, "5", "0", "4"),
	})
	require.Len(t, s.Buckets, len(entity.Buckets))
	assert.Equal(t, entity.BucketOnHand, s.Buckets[0].Bucket)
	assert.True(t, s.Buckets[0].AvailableQty.Equal(d("8")))
	assert.True(t, s.Buckets[1].Quantity.IsZero())

	assert.True(t, s.TotalQuantity.Equal(d("15")))
	assert.True(t, s.TotalReserved.Equal(d("2")))
	assert.True(t, s.TotalAvailable.Equal(d("13")))
	assert.True(t, s.TotalCost.Equal(d("80")))
	assert.Equal(t, d("80").Div(d("15")).String(), s.WeightedCost.String())
}

func TestSummarize_SinFilas(t *testing.T) {
	s := Summarize("t1", "w1", "v1", nil)
	assert.True(t, s.TotalQuantity.IsZero())
	assert.True(t, s.WeightedCost.IsZero())
	assert.Len(t, s.Buckets, 4)
}
