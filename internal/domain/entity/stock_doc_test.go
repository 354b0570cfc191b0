package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openDoc(dt DocType, lines ...StockDocLine) *StockDoc {
	d := &StockDoc{ID: "d1", TenantID: "t1", DocType: dt, DocStatus: DocStatusOpen}
	_ = d.ReplaceLines(lines)
	return d
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStockDoc_LineNoPorOrdenDeCreacion(t *testing.T) {
	d := openDoc(DocTypeRecFill, StockDocLine{VariantID: "a", Quantity: qty("1")})
	require.NoError(t, d.AddLine(StockDocLine{VariantID: "b", Quantity: qty("2")}))
	require.Len(t, d.Lines, 2)
	assert.Equal(t, 1, d.Lines[0].LineNo)
	assert.Equal(t, 2, d.Lines[1].LineNo)
	assert.Equal(t, "d1", d.Lines[1].StockDocID)
}

func TestStockDoc_PosteoDirecto(t *testing.T) {
	d := openDoc(DocTypeIssSale)
	require.NoError(t, d.MarkPosted("u1", t0))
	assert.Equal(t, DocStatusPosted, d.DocStatus)
	assert.Equal(t, "u1", d.ProcessedBy)
	require.NotNil(t, d.ProcessedAt)

	err := d.MarkPosted("u1", t0)
	var st *domain.StatusTransitionError
	require.True(t, errors.As(err, &st))
	assert.Equal(t, "POSTED", st.Current)
	assert.True(t, errors.Is(err, domain.ErrStatusTransition))

	assert.ErrorIs(t, d.MarkCancelled("u1", t0), domain.ErrStatusTransition)
	assert.ErrorIs(t, d.AddLine(StockDocLine{}), domain.ErrNotModifiable)
}

func TestStockDoc_EnvioRecepcion(t *testing.T) {
	d := openDoc(DocTypeTrfWh)
	assert.ErrorIs(t, d.MarkReceived("u1", t0), domain.ErrStatusTransition)
	require.NoError(t, d.MarkShipped("u1", t0))
	assert.Equal(t, DocStatusShipped, d.DocStatus)
	assert.False(t, d.CanBeModified())
	assert.False(t, d.CanBeCancelled())
	require.NoError(t, d.MarkReceived("u2", t0.Add(time.Hour)))
	assert.Equal(t, DocStatusPosted, d.DocStatus)
	assert.Equal(t, "u2", d.ProcessedBy)
}

func TestStockDoc_SoloTrasladosSeEnvian(t *testing.T) {
	d := openDoc(DocTypeTrfTruck)
	assert.False(t, d.CanBeShipped())
	assert.ErrorIs(t, d.MarkShipped("u1", t0), domain.ErrStatusTransition)
}

func TestStockDoc_Cancelacion(t *testing.T) {
	d := openDoc(DocTypeRecSupp)
	require.NoError(t, d.MarkCancelled("u1", t0))
	assert.Equal(t, DocStatusCancelled, d.DocStatus)
	assert.Equal(t, "u1", d.CancelledBy)
	assert.True(t, d.DocStatus.IsTerminal())
	assert.ErrorIs(t, d.MarkPosted("u1", t0), domain.ErrStatusTransition)
}

func TestValidateDocument(t *testing.T) {
	cases := []struct {
		name string
		doc  *StockDoc
		ok   bool
	}{
		{"sin líneas", openDoc(DocTypeRecFill), false},
		{"variante y gas", openDoc(DocTypeRecFill, StockDocLine{VariantID: "a", GasType: "GLP", Quantity: qty("1")}), false},
		{"ni variante ni gas", openDoc(DocTypeRecFill, StockDocLine{Quantity: qty("1")}), false},
		{"cantidad cero", openDoc(DocTypeRecFill, StockDocLine{VariantID: "a"}), false},
		{"costo negativo", openDoc(DocTypeRecFill, StockDocLine{VariantID: "a", Quantity: qty("1"), UnitCost: qty("-1")}), false},
		{"negativa fuera de ajuste", openDoc(DocTypeIssSale, StockDocLine{VariantID: "a", Quantity: qty("-1")}), false},
		{"negativa en ajuste", openDoc(DocTypeAdjVariance, StockDocLine{VariantID: "a", Quantity: qty("-1")}), true},
		{"gas a granel", openDoc(DocTypeRecSupp, StockDocLine{GasType: "GLP", Quantity: qty("120.5")}), true},
		{"conversión una línea", openDoc(DocTypeConvFil, StockDocLine{VariantID: "a", Quantity: qty("-1")}), false},
		{"conversión mismo signo", openDoc(DocTypeConvFil,
			StockDocLine{VariantID: "a", Quantity: qty("1")}, StockDocLine{VariantID: "b", Quantity: qty("1")}), false},
		{"conversión magnitud distinta", openDoc(DocTypeConvFil,
			StockDocLine{VariantID: "a", Quantity: qty("-2")}, StockDocLine{VariantID: "b", Quantity: qty("1")}), false},
		{"conversión misma variante", openDoc(DocTypeConvFil,
			StockDocLine{VariantID: "a", Quantity: qty("-1")}, StockDocLine{VariantID: "a", Quantity: qty("1")}), false},
		{"conversión ok", openDoc(DocTypeConvFil,
			StockDocLine{VariantID: "a", Quantity: qty("-3")}, StockDocLine{VariantID: "b", Quantity: qty("3")}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.doc.ValidateDocument()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}
}

func TestStockKey_Less(t *testing.T) {
	a := StockKey{TenantID: "t", WarehouseID: "w1", VariantID: "v1", Bucket: BucketQuarantine}
	b := StockKey{TenantID: "t", WarehouseID: "w1", VariantID: "v2", Bucket: BucketOnHand}
	c := StockKey{TenantID: "t", WarehouseID: "w1", VariantID: "v1", Bucket: BucketOnHand}
	assert.True(t, a.Less(b))
	assert.True(t, c.Less(a))
	assert.False(t, a.Less(a))
}

func TestStockLevel_Recompute(t *testing.T) {
	l := NewStockLevel("id", StockKey{TenantID: "t", WarehouseID: "w", VariantID: "v", Bucket: BucketOnHand}, t0)
	l.Quantity, l.ReservedQty, l.UnitCost = qty("10"), qty("3"), qty("2.5")
	l.Recompute()
	assert.True(t, l.AvailableQty.Equal(qty("7")))
	assert.True(t, l.TotalCost.Equal(qty("25")))
	assert.False(t, l.IsEmpty())
}
