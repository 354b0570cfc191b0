package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cilindros-api/internal/domain"
)

// DocType tipo de documento de stock.
type DocType string

const (
	DocTypeRecFill     DocType = "REC_FILL"     // recepción de cilindros llenados
	DocTypeRecSupp     DocType = "REC_SUPP"     // recepción de proveedor
	DocTypeRecRet      DocType = "REC_RET"      // devolución de cliente
	DocTypeIssLoad     DocType = "ISS_LOAD"     // salida por carga
	DocTypeIssSale     DocType = "ISS_SALE"     // salida por venta
	DocTypeTrfWh       DocType = "TRF_WH"       // traslado entre bodegas
	DocTypeXfer        DocType = "XFER"         // traslado (alias histórico)
	DocTypeTrfTruck    DocType = "TRF_TRUCK"    // carga/descarga de camión
	DocTypeLoadMob     DocType = "LOAD_MOB"     // carga de unidad móvil
	DocTypeAdjScrap    DocType = "ADJ_SCRAP"    // baja por chatarra
	DocTypeAdjVariance DocType = "ADJ_VARIANCE" // ajuste por diferencia de conteo
	DocTypeConvFil     DocType = "CONV_FIL"     // conversión vacío -> lleno
)

// IsConversion documento de conversión de variantes.
func (t DocType) IsConversion() bool { return t == DocTypeConvFil }

// IsAdjustment ajustes con cantidad con signo y sin chequeo de disponibilidad.
func (t DocType) IsAdjustment() bool { return t == DocTypeAdjScrap || t == DocTypeAdjVariance }

// IsWarehouseTransfer traslados que admiten el ciclo envío/recepción.
func (t DocType) IsWarehouseTransfer() bool { return t == DocTypeTrfWh || t == DocTypeXfer }

// DocStatus estado del documento.
type DocStatus string

const (
	DocStatusOpen      DocStatus = "OPEN"
	DocStatusShipped   DocStatus = "SHIPPED"
	DocStatusPosted    DocStatus = "POSTED"
	DocStatusCancelled DocStatus = "CANCELLED"
)

// IsTerminal POSTED y CANCELLED no admiten más transiciones.
func (s DocStatus) IsTerminal() bool { return s == DocStatusPosted || s == DocStatusCancelled }

// StockDocLine línea de un documento. Exactamente uno de VariantID o GasType.
type StockDocLine struct {
	ID         string
	StockDocID string
	LineNo     int
	VariantID  string
	GasType    string
	Quantity   decimal.Decimal // con signo
	UnitCost   decimal.Decimal
	CreatedAt  time.Time
}

// StockDoc cabecera + líneas ordenadas de un movimiento de stock.
type StockDoc struct {
	ID          string
	TenantID    string
	DocNo       string
	DocType     DocType
	DocStatus   DocStatus
	SourceWhID  string
	DestWhID    string
	RefDocID    string
	RefDocType  string
	Notes       string
	Lines       []StockDocLine
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	ProcessedBy string
	CancelledAt *time.Time
	CancelledBy string
}

// CanBeModified sólo los documentos OPEN aceptan cambios de líneas o cabecera.
func (d *StockDoc) CanBeModified() bool { return d.DocStatus == DocStatusOpen }

// CanBePosted posteo directo desde OPEN.
func (d *StockDoc) CanBePosted() bool { return d.DocStatus == DocStatusOpen }

// CanBeCancelled la cancelación sólo es válida desde OPEN.
func (d *StockDoc) CanBeCancelled() bool { return d.DocStatus == DocStatusOpen }

// CanBeShipped envío de un traslado entre bodegas todavía OPEN.
func (d *StockDoc) CanBeShipped() bool {
	return d.DocStatus == DocStatusOpen && d.DocType.IsWarehouseTransfer()
}

// CanBeReceived recepción de un traslado previamente enviado.
func (d *StockDoc) CanBeReceived() bool {
	return d.DocStatus == DocStatusShipped && d.DocType.IsWarehouseTransfer()
}

func (d *StockDoc) transitionError(to DocStatus) error {
	return &domain.StatusTransitionError{DocID: d.ID, Current: string(d.DocStatus), Requested: string(to)}
}

func (d *StockDoc) ensureModifiable() error {
	if !d.CanBeModified() {
		return &domain.ModificationError{DocID: d.ID, Status: string(d.DocStatus)}
	}
	return nil
}

// AddLine agrega una línea al final; LineNo se asigna por orden de creación.
func (d *StockDoc) AddLine(line StockDocLine) error {
	if err := d.ensureModifiable(); err != nil {
		return err
	}
	line.StockDocID = d.ID
	line.LineNo = len(d.Lines) + 1
	d.Lines = append(d.Lines, line)
	return nil
}

// ReplaceLines reemplaza todas las líneas conservando el orden recibido.
func (d *StockDoc) ReplaceLines(lines []StockDocLine) error {
	if err := d.ensureModifiable(); err != nil {
		return err
	}
	d.Lines = make([]StockDocLine, 0, len(lines))
	for _, l := range lines {
		l.StockDocID = d.ID
		l.LineNo = len(d.Lines) + 1
		d.Lines = append(d.Lines, l)
	}
	return nil
}

// ValidateDocument chequeos estructurales: una sola referencia de ítem por línea,
// cantidades no nulas, costos no negativos y reglas de líneas por tipo.
func (d *StockDoc) ValidateDocument() error {
	if d.TenantID == "" {
		return domain.NewValidation("tenant_id", "requerido")
	}
	if d.DocType == "" {
		return domain.NewValidation("doc_type", "requerido")
	}
	if len(d.Lines) == 0 {
		return domain.NewValidation("lines", "el documento no tiene líneas")
	}
	for _, l := range d.Lines {
		hasVariant, hasGas := l.VariantID != "", l.GasType != ""
		if hasVariant == hasGas {
			return domain.NewLineValidation(l.LineNo, "variant_id/gas_type", "debe indicarse exactamente uno")
		}
		if l.Quantity.IsZero() {
			return domain.NewLineValidation(l.LineNo, "quantity", "no puede ser cero")
		}
		if l.UnitCost.IsNegative() {
			return domain.NewLineValidation(l.LineNo, "unit_cost", "no puede ser negativo")
		}
		if !d.DocType.IsAdjustment() && !d.DocType.IsConversion() && l.Quantity.IsNegative() {
			return domain.NewLineValidation(l.LineNo, "quantity", "debe ser positiva para "+string(d.DocType))
		}
	}
	if d.DocType.IsConversion() {
		return d.validateConversionLines()
	}
	return nil
}

// validateConversionLines exactamente 2 líneas por variante, signos opuestos, misma magnitud.
func (d *StockDoc) validateConversionLines() error {
	if len(d.Lines) != 2 {
		return domain.NewValidation("lines", "la conversión requiere exactamente 2 líneas")
	}
	a, b := d.Lines[0], d.Lines[1]
	if a.VariantID == "" || b.VariantID == "" {
		return domain.NewValidation("lines", "la conversión sólo admite líneas por variante")
	}
	if a.VariantID == b.VariantID {
		return domain.NewValidation("lines", "la conversión requiere dos variantes distintas")
	}
	if a.Quantity.Sign() == b.Quantity.Sign() {
		return domain.NewValidation("lines", "las líneas de conversión deben tener signos opuestos")
	}
	if !a.Quantity.Abs().Equal(b.Quantity.Abs()) {
		return domain.NewValidation("lines", "las líneas de conversión deben tener la misma magnitud")
	}
	return nil
}

// MarkPosted OPEN -> POSTED.
func (d *StockDoc) MarkPosted(actor string, now time.Time) error {
	if !d.CanBePosted() {
		return d.transitionError(DocStatusPosted)
	}
	d.setProcessed(DocStatusPosted, actor, now)
	return nil
}

// MarkShipped OPEN -> SHIPPED (el stock queda IN_TRANSIT).
func (d *StockDoc) MarkShipped(actor string, now time.Time) error {
	if !d.CanBeShipped() {
		return d.transitionError(DocStatusShipped)
	}
	d.setProcessed(DocStatusShipped, actor, now)
	return nil
}

// MarkReceived SHIPPED -> POSTED.
func (d *StockDoc) MarkReceived(actor string, now time.Time) error {
	if !d.CanBeReceived() {
		return d.transitionError(DocStatusPosted)
	}
	d.setProcessed(DocStatusPosted, actor, now)
	return nil
}

// MarkCancelled OPEN -> CANCELLED, sin efecto en stock.
func (d *StockDoc) MarkCancelled(actor string, now time.Time) error {
	if !d.CanBeCancelled() {
		return d.transitionError(DocStatusCancelled)
	}
	d.DocStatus = DocStatusCancelled
	d.CancelledAt = &now
	d.CancelledBy = actor
	d.UpdatedAt = now
	return nil
}

func (d *StockDoc) setProcessed(status DocStatus, actor string, now time.Time) {
	d.DocStatus = status
	d.ProcessedAt = &now
	d.ProcessedBy = actor
	d.UpdatedAt = now
}

// Clone copia profunda del documento y sus líneas.
func (d *StockDoc) Clone() *StockDoc {
	c := *d
	c.Lines = append([]StockDocLine(nil), d.Lines...)
	if d.ProcessedAt != nil {
		t := *d.ProcessedAt
		c.ProcessedAt = &t
	}
	if d.CancelledAt != nil {
		t := *d.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}
