package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

// Ledger operaciones atómicas sobre filas StockLevel. Se construye sobre el repositorio
// de la transacción en curso: los bloqueos duran hasta el Commit/Rollback.
type Ledger struct {
	repo repository.StockLevelRepository
	now  func() time.Time
}

// NewLedger construye el ledger sobre un repositorio (normalmente el de la tx).
func NewLedger(repo repository.StockLevelRepository, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{repo: repo, now: now}
}

// Get lectura sin bloqueo; nil si la fila no existe.
func (l *Ledger) Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return l.repo.Get(ctx, key)
}

// UpdateQuantity aplica delta a la fila (creándola si falta). Con delta > 0 y unitCost
// informado recalcula el costo promedio ponderado. No chequea disponibilidad.
func (l *Ledger) UpdateQuantity(ctx context.Context, key entity.StockKey, delta decimal.Decimal, unitCost *decimal.Decimal) (*entity.StockLevel, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	level, err := l.repo.EnsureForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	l.apply(level, delta, unitCost)
	if err := l.repo.Upsert(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// Reserve reserva qty si hay disponible suficiente. false sin mutar si no alcanza o la fila no existe.
func (l *Ledger) Reserve(ctx context.Context, key entity.StockKey, qty decimal.Decimal) (bool, error) {
	if err := validateQty(qty); err != nil {
		return false, err
	}
	if err := validateKey(key); err != nil {
		return false, err
	}
	level, err := l.repo.GetForUpdate(ctx, key)
	if err != nil || level == nil {
		return false, err
	}
	if level.AvailableQty.LessThan(qty) {
		return false, nil
	}
	level.ReservedQty = level.ReservedQty.Add(qty)
	l.touch(level, false)
	return true, l.repo.Upsert(ctx, level)
}

// ReleaseReservation libera qty de lo reservado. false si qty supera lo reservado.
func (l *Ledger) ReleaseReservation(ctx context.Context, key entity.StockKey, qty decimal.Decimal) (bool, error) {
	if err := validateQty(qty); err != nil {
		return false, err
	}
	if err := validateKey(key); err != nil {
		return false, err
	}
	level, err := l.repo.GetForUpdate(ctx, key)
	if err != nil || level == nil {
		return false, err
	}
	if level.ReservedQty.LessThan(qty) {
		return false, nil
	}
	level.ReservedQty = level.ReservedQty.Sub(qty)
	l.touch(level, false)
	return true, l.repo.Upsert(ctx, level)
}

// TransferBetweenStatuses mueve qty entre dos buckets de la misma bodega+variante,
// arrastrando el costo unitario del origen.
func (l *Ledger) TransferBetweenStatuses(ctx context.Context, tenantID, warehouseID, variantID string, from, to entity.Bucket, qty decimal.Decimal) (bool, error) {
	if from == to {
		return false, domain.NewValidation("bucket", "origen y destino deben ser distintos")
	}
	src := entity.StockKey{TenantID: tenantID, WarehouseID: warehouseID, VariantID: variantID, Bucket: from}
	dst := entity.StockKey{TenantID: tenantID, WarehouseID: warehouseID, VariantID: variantID, Bucket: to}
	return l.transfer(ctx, src, dst, qty)
}

// TransferBetweenWarehouses mueve qty del mismo bucket entre dos bodegas.
func (l *Ledger) TransferBetweenWarehouses(ctx context.Context, tenantID, fromWh, toWh, variantID string, qty decimal.Decimal, bucket entity.Bucket) (bool, error) {
	if fromWh == toWh {
		return false, domain.NewValidation("dest_wh_id", "origen y destino deben ser distintos")
	}
	src := entity.StockKey{TenantID: tenantID, WarehouseID: fromWh, VariantID: variantID, Bucket: bucket}
	dst := entity.StockKey{TenantID: tenantID, WarehouseID: toWh, VariantID: variantID, Bucket: bucket}
	return l.transfer(ctx, src, dst, qty)
}

// transfer bloquea las filas existentes en el orden fijo y lee el disponible del origen
// antes de crear nada: un traslado rechazado no deja filas nuevas.
func (l *Ledger) transfer(ctx context.Context, src, dst entity.StockKey, qty decimal.Decimal) (bool, error) {
	if err := validateQty(qty); err != nil {
		return false, err
	}
	if err := validateKey(src); err != nil {
		return false, err
	}
	if err := validateKey(dst); err != nil {
		return false, err
	}
	ordered := []entity.StockKey{src, dst}
	if dst.Less(src) {
		ordered = []entity.StockKey{dst, src}
	}
	locked := make(map[entity.StockKey]*entity.StockLevel, 2)
	for _, k := range ordered {
		level, err := l.repo.GetForUpdate(ctx, k)
		if err != nil {
			return false, err
		}
		if level == nil && k == src {
			return false, nil
		}
		if level != nil {
			locked[k] = level
		}
	}
	from := locked[src]
	if from.AvailableQty.LessThan(qty) {
		return false, nil
	}
	if _, ok := locked[dst]; !ok {
		to, err := l.repo.EnsureForUpdate(ctx, dst)
		if err != nil {
			return false, err
		}
		if to == nil {
			return false, &domain.IntegrityError{Detail: "fila de stock no creada para " + dst.WarehouseID + "/" + dst.VariantID + "/" + string(dst.Bucket)}
		}
		locked[dst] = to
	}
	cost := from.UnitCost
	l.apply(from, qty.Neg(), nil)
	l.apply(locked[dst], qty, &cost)
	if err := l.SaveAll(ctx, locked); err != nil {
		return false, err
	}
	return true, nil
}

// LockAll bloquea (creando si falta) cada clave en el orden fijo (bodega, variante, bucket).
func (l *Ledger) LockAll(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]*entity.StockLevel, error) {
	ordered := append([]entity.StockKey(nil), keys...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })
	out := make(map[entity.StockKey]*entity.StockLevel, len(ordered))
	for _, k := range ordered {
		if _, ok := out[k]; ok {
			continue
		}
		level, err := l.repo.EnsureForUpdate(ctx, k)
		if err != nil {
			return nil, err
		}
		if level == nil {
			return nil, &domain.IntegrityError{Detail: "fila de stock no creada para " + k.WarehouseID + "/" + k.VariantID + "/" + string(k.Bucket)}
		}
		out[k] = level
	}
	return out, nil
}

// SaveAll persiste las filas bloqueadas en el mismo orden en que se bloquearon.
func (l *Ledger) SaveAll(ctx context.Context, levels map[entity.StockKey]*entity.StockLevel) error {
	keys := make([]entity.StockKey, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		if err := l.repo.Upsert(ctx, levels[k]); err != nil {
			return err
		}
	}
	return nil
}

// apply muta la fila en memoria; el llamador la persiste.
func (l *Ledger) apply(level *entity.StockLevel, delta decimal.Decimal, unitCost *decimal.Decimal) {
	if delta.IsPositive() && unitCost != nil {
		level.UnitCost = inventory.CostCalculator(level.Quantity, level.TotalCost, delta, *unitCost).Round(entity.CostScale)
	}
	level.Quantity = level.Quantity.Add(delta)
	l.touch(level, true)
}

func (l *Ledger) touch(level *entity.StockLevel, transaction bool) {
	now := l.now().UTC()
	level.Recompute()
	level.UpdatedAt = now
	if transaction {
		level.LastTransactionDate = &now
	}
}

func validateQty(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return domain.NewValidation("quantity", "debe ser mayor que cero")
	}
	return nil
}

func validateKey(k entity.StockKey) error {
	switch {
	case k.TenantID == "":
		return domain.NewValidation("tenant_id", "requerido")
	case k.WarehouseID == "":
		return domain.NewValidation("warehouse_id", "requerido")
	case k.VariantID == "":
		return domain.NewValidation("variant_id", "requerido")
	case !k.Bucket.Valid():
		return domain.NewValidation("bucket", "bucket desconocido: "+string(k.Bucket))
	}
	return nil
}

func newID() string { return uuid.New().String() }
