package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"25000":    "25.000",
		"1000000":  "1.000.000",
		"-1234567": "-1.234.567",
		"1499.6":   "1.500",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestPrintStockDoc_GeneraPDF(t *testing.T) {
	doc := &entity.StockDoc{
		ID:         "0b6f6f9e-2a51-4a5e-9d8c-6a0f3c1b2d11",
		TenantID:   "t1",
		DocNo:      "TRT-000007",
		DocType:    entity.DocTypeTrfTruck,
		DocStatus:  entity.DocStatusPosted,
		SourceWhID: "w1",
		CreatedAt:  time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
		CreatedBy:  "bodeguero-1",
		Lines: []entity.StockDocLine{
			{LineNo: 1, VariantID: "v1", Quantity: decimal.NewFromInt(20), UnitCost: decimal.NewFromInt(48000)},
			{LineNo: 2, GasType: "GLP", Quantity: decimal.NewFromFloat(120.5), UnitCost: decimal.NewFromInt(3500)},
		},
	}
	refs := inventory.PrintRefs{
		Source:   &entity.Warehouse{ID: "w1", Code: "PRINCIPAL", Name: "Planta principal"},
		Variants: map[string]*entity.Variant{"v1": {ID: "v1", SKU: "CIL-15-LL", Name: "Cilindro 15 kg lleno"}},
	}

	out, err := NewStockDocPDFGenerator().PrintStockDoc(context.Background(), doc, refs)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "la salida debe ser un PDF")

	units, cost := docTotals(doc)
	assert.True(t, units.Equal(decimal.RequireFromString("140.5")))
	assert.True(t, cost.Equal(decimal.RequireFromString("1381750")))
}
