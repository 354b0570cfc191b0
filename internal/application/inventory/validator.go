package inventory

import (
	"context"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

// DocumentValidator reglas de negocio previas a cualquier mutación del ledger:
// estructura, bodegas requeridas, existencia dentro del tenant, pares de conversión y permisos.
type DocumentValidator struct {
	variantRepo   repository.VariantRepository
	warehouseRepo repository.WarehouseRepository
	access        AccessChecker
}

// NewDocumentValidator construye el validador.
func NewDocumentValidator(
	variantRepo repository.VariantRepository,
	warehouseRepo repository.WarehouseRepository,
	access AccessChecker,
) *DocumentValidator {
	return &DocumentValidator{variantRepo: variantRepo, warehouseRepo: warehouseRepo, access: access}
}

// ValidatedDoc resultado de la validación: regla del tipo y variante resuelta por línea.
type ValidatedDoc struct {
	Rule     inventory.DocTypeRule
	variants map[int]*entity.Variant // por LineNo
}

// VariantOf variante resuelta de la línea (las líneas por gas_type usan la variante granel).
func (v *ValidatedDoc) VariantOf(line entity.StockDocLine) string {
	if vr, ok := v.variants[line.LineNo]; ok {
		return vr.ID
	}
	return line.VariantID
}

// Validate aplica todas las reglas. actor es quien crea o postea el documento.
func (v *DocumentValidator) Validate(ctx context.Context, doc *entity.StockDoc, actor string) (*ValidatedDoc, error) {
	if err := doc.ValidateDocument(); err != nil {
		return nil, err
	}
	rule, _, err := inventory.ResolveRoute(doc)
	if err != nil {
		return nil, err
	}
	for _, whID := range []string{doc.SourceWhID, doc.DestWhID} {
		if err := v.checkWarehouse(ctx, doc.TenantID, whID); err != nil {
			return nil, err
		}
	}

	out := &ValidatedDoc{Rule: rule, variants: make(map[int]*entity.Variant, len(doc.Lines))}
	for _, line := range doc.Lines {
		variant, err := v.resolveVariant(ctx, doc.TenantID, line, true)
		if err != nil {
			return nil, err
		}
		out.variants[line.LineNo] = variant
	}
	if doc.DocType.IsConversion() {
		if err := checkConversionPair(doc, out.variants); err != nil {
			return nil, err
		}
	}

	if err := v.checkPermission(ctx, actor, doc.SourceWhID, rule.SourceRole); err != nil {
		return nil, err
	}
	if err := v.checkPermission(ctx, actor, doc.DestWhID, rule.DestRole); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateReceive reglas de la recepción de un traslado ya despachado: solo cuenta la bodega
// destino (activa y con DestRole para el actor). El origen ya se validó en el despacho y las
// variantes inactivas se aceptan porque su stock ya está en tránsito.
func (v *DocumentValidator) ValidateReceive(ctx context.Context, doc *entity.StockDoc, actor string) (*ValidatedDoc, error) {
	if err := doc.ValidateDocument(); err != nil {
		return nil, err
	}
	rule, _, err := inventory.ResolveRoute(doc)
	if err != nil {
		return nil, err
	}
	if err := v.checkWarehouse(ctx, doc.TenantID, doc.DestWhID); err != nil {
		return nil, err
	}
	out := &ValidatedDoc{Rule: rule, variants: make(map[int]*entity.Variant, len(doc.Lines))}
	for _, line := range doc.Lines {
		variant, err := v.resolveVariant(ctx, doc.TenantID, line, false)
		if err != nil {
			return nil, err
		}
		out.variants[line.LineNo] = variant
	}
	if err := v.checkPermission(ctx, actor, doc.DestWhID, rule.DestRole); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *DocumentValidator) checkWarehouse(ctx context.Context, tenantID, whID string) error {
	if whID == "" {
		return nil
	}
	wh, err := v.warehouseRepo.GetByID(ctx, tenantID, whID)
	if err != nil {
		return err
	}
	if wh == nil {
		return &domain.NotFoundError{Resource: "bodega", ID: whID}
	}
	if !wh.Active {
		return domain.NewValidation("warehouse", "la bodega "+wh.Code+" está inactiva")
	}
	return nil
}

func (v *DocumentValidator) resolveVariant(ctx context.Context, tenantID string, line entity.StockDocLine, requireActive bool) (*entity.Variant, error) {
	if line.GasType != "" {
		bulk, err := v.variantRepo.GetBulkByGasType(ctx, tenantID, line.GasType)
		if err != nil {
			return nil, err
		}
		if bulk == nil {
			return nil, domain.NewLineValidation(line.LineNo, "gas_type", "no hay variante granel para el gas "+line.GasType)
		}
		return bulk, nil
	}
	variant, err := v.variantRepo.GetByID(ctx, tenantID, line.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, &domain.NotFoundError{Resource: "variante", ID: line.VariantID}
	}
	if requireActive && !variant.Active {
		return nil, domain.NewLineValidation(line.LineNo, "variant_id", "la variante "+variant.SKU+" está inactiva")
	}
	return variant, nil
}

// checkConversionPair la línea negativa sale de un vacío y la positiva entra a un lleno
// del mismo gas; si el vacío declara su par, debe coincidir.
func checkConversionPair(doc *entity.StockDoc, variants map[int]*entity.Variant) error {
	var empty, full *entity.Variant
	var fullLine int
	for _, line := range doc.Lines {
		if line.Quantity.IsNegative() {
			empty = variants[line.LineNo]
			if empty.Role != entity.VariantRoleEmpty {
				return domain.NewLineValidation(line.LineNo, "variant_id", "la salida de una conversión debe ser una variante vacía")
			}
			continue
		}
		full, fullLine = variants[line.LineNo], line.LineNo
		if full.Role != entity.VariantRoleFull {
			return domain.NewLineValidation(line.LineNo, "variant_id", "la entrada de una conversión debe ser una variante llena")
		}
	}
	if empty.PairedVariantID != "" && empty.PairedVariantID != full.ID {
		return domain.NewLineValidation(fullLine, "variant_id", "la variante llena no corresponde al par del vacío")
	}
	if empty.GasType != "" && full.GasType != "" && empty.GasType != full.GasType {
		return domain.NewLineValidation(fullLine, "variant_id", "las variantes de la conversión son de gases distintos")
	}
	return nil
}

func (v *DocumentValidator) checkPermission(ctx context.Context, actor, warehouseID, role string) error {
	if warehouseID == "" || role == "" {
		return nil
	}
	ok, err := v.access.CanAccess(ctx, actor, warehouseID, role)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.PermissionError{Actor: actor, WarehouseID: warehouseID, Role: role}
	}
	return nil
}
