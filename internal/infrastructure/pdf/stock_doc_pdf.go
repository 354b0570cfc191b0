// Package pdf genera la representación imprimible de un documento de stock
// (remisión, hoja de carga de camión, acta de ajuste) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de documento    │  N° Documento + Estado       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  BODEGAS: Origen / Destino + Referencia                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | SKU | Descripción | Cant. | Costo | Total        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Unidades / Costo total                             │
//	│  FIRMAS + QR con el id del documento                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var docTypeTitles = map[entity.DocType]string{
	entity.DocTypeRecFill:     "RECEPCIÓN DE LLENADO",
	entity.DocTypeRecSupp:     "RECEPCIÓN DE PROVEEDOR",
	entity.DocTypeRecRet:      "DEVOLUCIÓN DE CLIENTE",
	entity.DocTypeIssLoad:     "SALIDA POR CARGA",
	entity.DocTypeIssSale:     "SALIDA POR VENTA",
	entity.DocTypeTrfWh:       "TRASLADO ENTRE BODEGAS",
	entity.DocTypeXfer:        "TRASLADO ENTRE BODEGAS",
	entity.DocTypeTrfTruck:    "HOJA DE CARGA DE CAMIÓN",
	entity.DocTypeLoadMob:     "CARGA DE UNIDAD MÓVIL",
	entity.DocTypeAdjScrap:    "ACTA DE BAJA",
	entity.DocTypeAdjVariance: "AJUSTE POR CONTEO",
	entity.DocTypeConvFil:     "CONVERSIÓN VACÍO A LLENO",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.DocumentPrinter = (*StockDocPDFGenerator)(nil)

// StockDocPDFGenerator implementa inventory.DocumentPrinter usando Maroto v2.
type StockDocPDFGenerator struct{}

// NewStockDocPDFGenerator construye el generador.
func NewStockDocPDFGenerator() *StockDocPDFGenerator { return &StockDocPDFGenerator{} }

// PrintStockDoc genera el PDF y devuelve sus bytes.
func (g *StockDocPDFGenerator) PrintStockDoc(_ context.Context, doc *entity.StockDoc, refs inventory.PrintRefs) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title(doc.DocType)+" "+doc.DocNo, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(warehousesRow(doc, refs))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(doc, refs)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))
	m.AddRows(line.NewRow(6))
	m.AddRows(signatureRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo de documento (izq) y número + estado + fecha (der).
func headerRow(doc *entity.StockDoc) core.Row {
	statusColor := colorGray
	if doc.DocStatus == entity.DocStatusCancelled {
		statusColor = colorDanger
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(title(doc.DocType), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Tipo: "+string(doc.DocType), props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(doc.DocNo, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Estado: "+string(doc.DocStatus), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 8, Color: statusColor,
			}),
			text.New("Fecha: "+doc.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// warehousesRow: origen y destino (nombre + código) y referencia externa.
func warehousesRow(doc *entity.StockDoc, refs inventory.PrintRefs) core.Row {
	wh := func(label string, w *entity.Warehouse, id string) core.Col {
		name := "—"
		if w != nil {
			name = w.Name + " (" + w.Code + ")"
		} else if id != "" {
			name = id
		}
		return col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(name, props.Text{Size: 9, Top: 6}),
		)
	}
	ref := "—"
	if doc.RefDocID != "" {
		ref = strings.TrimSpace(doc.RefDocType + " " + doc.RefDocID)
	}
	return row.New(14).Add(
		wh("BODEGA ORIGEN", refs.Source, doc.SourceWhID),
		wh("BODEGA DESTINO", refs.Dest, doc.DestWhID),
		col.New(4).Add(
			text.New("REFERENCIA", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(ref, props.Text{Size: 9, Top: 6}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("SKU / Gas", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Cant.", 1, align.Right),
		h("Costo Unit.", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

// tableLineRows: una fila por línea del documento, en orden de creación.
func tableLineRows(doc *entity.StockDoc, refs inventory.PrintRefs) []core.Row {
	result := make([]core.Row, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		sku, desc := l.GasType, "Granel "+l.GasType
		if v := refs.Variants[l.VariantID]; v != nil {
			sku, desc = v.SKU, v.Name
		} else if l.VariantID != "" {
			sku, desc = l.VariantID, ""
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(l.LineNo), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(sku, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(desc, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(l.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(l.UnitCost), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(l.Quantity.Mul(l.UnitCost)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: unidades netas y costo total del documento.
func totalsRow(doc *entity.StockDoc) core.Row {
	units, cost := docTotals(doc)
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(label("Unidades netas:"), label("Costo total:")),
		col.New(3).Add(value(units.String()), value("$"+formatMoney(cost))),
	)
}

// signatureRow: firmas de entrega y recibido + QR con el id para escanear en bodega.
func signatureRow(doc *entity.StockDoc) core.Row {
	sign := func(label, who string) core.Col {
		return col.New(4).Add(
			text.New("______________________________", props.Text{Size: 8, Align: align.Center, Top: 14}),
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 19}),
			text.New(who, props.Text{Size: 7, Align: align.Center, Top: 23, Color: colorGray}),
		)
	}
	return row.New(32).Add(
		sign("Entrega", doc.CreatedBy),
		sign("Recibe", doc.ProcessedBy),
		col.New(4).Add(code.NewQr(doc.ID, props.Rect{Percent: 85, Center: true})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func title(t entity.DocType) string {
	if s, ok := docTypeTitles[t]; ok {
		return s
	}
	return "DOCUMENTO DE STOCK"
}

func docTotals(doc *entity.StockDoc) (units, cost decimal.Decimal) {
	for _, l := range doc.Lines {
		units = units.Add(l.Quantity)
		cost = cost.Add(l.Quantity.Mul(l.UnitCost))
	}
	return units, cost
}

// formatMoney redondea a pesos e inserta puntos de miles.
// Ej: 25000 → "25.000", -1000000 → "-1.000.000"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(0)
	n := len(s)
	buf := make([]byte, 0, n+n/3+1)
	if d.Round(0).IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
