package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

// StockUseCase consultas y operaciones directas sobre el ledger que no pasan por un documento:
// reservas blandas, movimientos entre buckets (cuarentena), resumen y limpieza.
type StockUseCase struct {
	txRunner  TxRunner
	levelRepo repository.StockLevelRepository
	access    AccessChecker
	events    EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewStockUseCase construye el caso de uso. levelRepo se usa sólo para lecturas y limpieza.
func NewStockUseCase(
	txRunner TxRunner,
	levelRepo repository.StockLevelRepository,
	access AccessChecker,
	events EventPublisher,
	log *logger.Logger,
) *StockUseCase {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{
		txRunner:  txRunner,
		levelRepo: levelRepo,
		access:    access,
		events:    events,
		log:       log.Component("stock"),
		now:       time.Now,
	}
}

// GetStockLevel lectura sin bloqueo; puede estar levemente desactualizada.
func (uc *StockUseCase) GetStockLevel(ctx context.Context, tenantID, warehouseID, variantID string, bucket entity.Bucket) (*dto.StockLevelResponse, error) {
	key := entity.StockKey{TenantID: tenantID, WarehouseID: warehouseID, VariantID: variantID, Bucket: bucketOrDefault(bucket)}
	level, err := NewLedger(uc.levelRepo, uc.now).Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, &domain.NotFoundError{Resource: "nivel de stock", ID: warehouseID + "/" + variantID + "/" + string(key.Bucket)}
	}
	return ToStockLevelResponse(level), nil
}

// ReserveStock reserva en su propia transacción con la fila bloqueada.
func (uc *StockUseCase) ReserveStock(ctx context.Context, tenantID, actor string, in dto.ReserveStockRequest) (*dto.ReserveStockResponse, error) {
	return uc.reservation(ctx, tenantID, actor, in, true)
}

// ReleaseStockReservation libera una reserva previa.
func (uc *StockUseCase) ReleaseStockReservation(ctx context.Context, tenantID, actor string, in dto.ReserveStockRequest) (*dto.ReserveStockResponse, error) {
	return uc.reservation(ctx, tenantID, actor, in, false)
}

func (uc *StockUseCase) reservation(ctx context.Context, tenantID, actor string, in dto.ReserveStockRequest, reserve bool) (*dto.ReserveStockResponse, error) {
	if err := uc.checkAccess(ctx, actor, in.WarehouseID, entity.RoleStockReserve); err != nil {
		return nil, err
	}
	key := entity.StockKey{TenantID: tenantID, WarehouseID: in.WarehouseID, VariantID: in.VariantID, Bucket: bucketOrDefault(entity.Bucket(in.Bucket))}
	var (
		granted bool
		level   *entity.StockLevel
	)
	err := uc.txRunner.Run(ctx, func(
		levelRepo repository.StockLevelRepository,
		_ repository.StockDocRepository,
		_ repository.StockMovementRepository,
	) error {
		ledger := NewLedger(levelRepo, uc.now)
		var err error
		if reserve {
			granted, err = ledger.Reserve(ctx, key, in.Quantity)
		} else {
			granted, err = ledger.ReleaseReservation(ctx, key, in.Quantity)
		}
		if err != nil {
			return err
		}
		level, err = levelRepo.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &dto.ReserveStockResponse{Granted: granted}
	if level != nil {
		out.Level = ToStockLevelResponse(level)
	}
	if granted {
		eventType := entity.EventStockReleased
		if reserve {
			eventType = entity.EventStockReserved
		}
		ev := levelEvent(eventType, level, actor, uc.now().UTC())
		qty := in.Quantity
		ev.Quantity = &qty
		uc.events.Publish(ctx, ev)
	}
	uc.log.Debug().Str("warehouse_id", key.WarehouseID).Str("variant_id", key.VariantID).Bool("reserve", reserve).Bool("granted", granted).Msg("reserva procesada")
	return out, nil
}

// TransferBetweenStatuses mueve cantidad entre buckets de la misma bodega (p. ej. ON_HAND -> QUARANTINE).
func (uc *StockUseCase) TransferBetweenStatuses(ctx context.Context, tenantID, actor string, in dto.TransferStatusRequest) (*dto.TransferStatusResponse, error) {
	from, to := entity.Bucket(in.FromBucket), entity.Bucket(in.ToBucket)
	if err := uc.checkAccess(ctx, actor, in.WarehouseID, entity.RoleStockAdjust); err != nil {
		return nil, err
	}
	var (
		moved  bool
		levels []*entity.StockLevel
	)
	err := uc.txRunner.Run(ctx, func(
		levelRepo repository.StockLevelRepository,
		_ repository.StockDocRepository,
		_ repository.StockMovementRepository,
	) error {
		var err error
		moved, err = NewLedger(levelRepo, uc.now).TransferBetweenStatuses(ctx, tenantID, in.WarehouseID, in.VariantID, from, to, in.Quantity)
		if err != nil || !moved {
			return err
		}
		for _, b := range []entity.Bucket{from, to} {
			lvl, err := levelRepo.Get(ctx, entity.StockKey{TenantID: tenantID, WarehouseID: in.WarehouseID, VariantID: in.VariantID, Bucket: b})
			if err != nil {
				return err
			}
			if lvl != nil {
				levels = append(levels, lvl)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if moved {
		at := uc.now().UTC()
		events := make([]entity.StockEvent, 0, len(levels))
		for _, lvl := range levels {
			events = append(events, levelEvent(entity.EventStockLevelChanged, lvl, actor, at))
		}
		uc.events.Publish(ctx, events...)
		uc.log.Info().Str("warehouse_id", in.WarehouseID).Str("variant_id", in.VariantID).
			Str("from", in.FromBucket).Str("to", in.ToBucket).Str("quantity", in.Quantity.String()).Msg("movimiento entre buckets")
	}
	return &dto.TransferStatusResponse{Moved: moved}, nil
}

// GetStockSummary resumen por buckets de una bodega+variante (lectura sin bloqueo).
func (uc *StockUseCase) GetStockSummary(ctx context.Context, tenantID, warehouseID, variantID string) (*dto.StockSummaryResponse, error) {
	levels, err := uc.levelRepo.ListByWarehouseVariant(ctx, tenantID, warehouseID, variantID)
	if err != nil {
		return nil, err
	}
	s := inventory.Summarize(tenantID, warehouseID, variantID, levels)
	out := &dto.StockSummaryResponse{
		WarehouseID:    s.WarehouseID,
		VariantID:      s.VariantID,
		Buckets:        make([]dto.BucketTotalsResponse, 0, len(s.Buckets)),
		TotalQuantity:  s.TotalQuantity,
		TotalReserved:  s.TotalReserved,
		TotalAvailable: s.TotalAvailable,
		TotalCost:      s.TotalCost,
		WeightedCost:   s.WeightedCost,
	}
	for _, b := range s.Buckets {
		out.Buckets = append(out.Buckets, dto.BucketTotalsResponse{
			Bucket:       string(b.Bucket),
			Quantity:     b.Quantity,
			ReservedQty:  b.ReservedQty,
			AvailableQty: b.AvailableQty,
			TotalCost:    b.TotalCost,
		})
	}
	return out, nil
}

// ListStockLevels filas de una bodega, paginadas.
func (uc *StockUseCase) ListStockLevels(ctx context.Context, tenantID, warehouseID string, limit, offset int) (*dto.StockLevelListResponse, error) {
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.Normalize()
	list, err := uc.levelRepo.ListByWarehouse(ctx, tenantID, warehouseID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockLevelResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *ToStockLevelResponse(l))
	}
	return &dto.StockLevelListResponse{Items: items, Page: dto.NewPageResponse(page, len(items))}, nil
}

// PurgeEmptyLevels limpieza administrativa: borra filas sin cantidad ni reservas de una bodega.
func (uc *StockUseCase) PurgeEmptyLevels(ctx context.Context, tenantID, warehouseID string) (*dto.PurgeEmptyLevelsResponse, error) {
	if warehouseID == "" {
		return nil, domain.NewValidation("warehouse_id", "requerido")
	}
	n, err := uc.levelRepo.DeleteEmpty(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("warehouse_id", warehouseID).Int64("deleted", n).Msg("filas de stock vacías eliminadas")
	return &dto.PurgeEmptyLevelsResponse{Deleted: n}, nil
}

func (uc *StockUseCase) checkAccess(ctx context.Context, actor, warehouseID, role string) error {
	if warehouseID == "" {
		return domain.NewValidation("warehouse_id", "requerido")
	}
	ok, err := uc.access.CanAccess(ctx, actor, warehouseID, role)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.PermissionError{Actor: actor, WarehouseID: warehouseID, Role: role}
	}
	return nil
}

func bucketOrDefault(b entity.Bucket) entity.Bucket {
	if b == "" {
		return entity.BucketOnHand
	}
	return b
}

// ToStockLevelResponse mapea la fila del ledger a su DTO.
func ToStockLevelResponse(l *entity.StockLevel) *dto.StockLevelResponse {
	if l == nil {
		return nil
	}
	return &dto.StockLevelResponse{
		WarehouseID:         l.WarehouseID,
		VariantID:           l.VariantID,
		Bucket:              string(l.Bucket),
		Quantity:            l.Quantity,
		ReservedQty:         l.ReservedQty,
		AvailableQty:        l.AvailableQty,
		UnitCost:            l.UnitCost,
		TotalCost:           l.TotalCost,
		LastTransactionDate: l.LastTransactionDate,
	}
}
