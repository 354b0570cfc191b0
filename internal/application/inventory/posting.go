package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

// PostingEngine aplica un documento al ledger como una sola unidad: o se aplican todas
// sus piernas y el estado avanza, o no cambia nada.
type PostingEngine struct {
	txRunner  TxRunner
	validator *DocumentValidator
	events    EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewPostingEngine construye el motor de posteo.
func NewPostingEngine(txRunner TxRunner, validator *DocumentValidator, events EventPublisher, log *logger.Logger) *PostingEngine {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PostingEngine{
		txRunner:  txRunner,
		validator: validator,
		events:    events,
		log:       log.Component("posting"),
		now:       time.Now,
	}
}

// Post OPEN -> POSTED aplicando las piernas de posteo.
func (e *PostingEngine) Post(ctx context.Context, tenantID, docID, actor string) (*entity.StockDoc, error) {
	return e.run(ctx, tenantID, docID, actor, inventory.PhasePost)
}

// Ship OPEN -> SHIPPED: el stock sale del origen y queda IN_TRANSIT en el destino.
func (e *PostingEngine) Ship(ctx context.Context, tenantID, docID, actor string) (*entity.StockDoc, error) {
	return e.run(ctx, tenantID, docID, actor, inventory.PhaseShip)
}

// Receive SHIPPED -> POSTED: IN_TRANSIT pasa a ON_HAND en el destino.
func (e *PostingEngine) Receive(ctx context.Context, tenantID, docID, actor string) (*entity.StockDoc, error) {
	return e.run(ctx, tenantID, docID, actor, inventory.PhaseReceive)
}

// postingResult lo que se publica después del commit.
type postingResult struct {
	doc    *entity.StockDoc
	levels []*entity.StockLevel
	moves  int
}

func (e *PostingEngine) run(ctx context.Context, tenantID, docID, actor string, phase inventory.Phase) (*entity.StockDoc, error) {
	var res postingResult
	err := e.txRunner.Run(ctx, func(
		levelRepo repository.StockLevelRepository,
		docRepo repository.StockDocRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// El bloqueo de la cabecera serializa dos posteos concurrentes del mismo documento:
		// el segundo ve el estado nuevo y falla en checkPhase.
		doc, err := docRepo.GetForUpdate(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return &domain.NotFoundError{Resource: "documento", ID: docID}
		}
		if err := checkPhase(doc, phase); err != nil {
			return err
		}
		validate := e.validator.Validate
		if phase == inventory.PhaseReceive {
			validate = e.validator.ValidateReceive
		}
		validated, err := validate(ctx, doc, actor)
		if err != nil {
			return err
		}
		plan, err := inventory.Plan(doc, phase, validated.VariantOf)
		if err != nil {
			return err
		}

		now := e.now().UTC()
		ledger := NewLedger(levelRepo, func() time.Time { return now })
		levels, err := ledger.LockAll(ctx, inventory.LockOrder(plan))
		if err != nil {
			return &domain.PostingError{DocID: doc.ID, Cause: err}
		}
		for _, req := range inventory.Requirements(plan) {
			lvl := levels[req.Key]
			if lvl.AvailableQty.LessThan(req.Quantity) {
				return &domain.PostingError{DocID: doc.ID, LineNo: req.LineNo, Cause: &domain.InsufficientStockError{
					WarehouseID: req.Key.WarehouseID,
					VariantID:   req.Key.VariantID,
					Bucket:      string(req.Key.Bucket),
					Requested:   req.Quantity,
					Available:   lvl.AvailableQty,
				}}
			}
		}

		moves, err := applyPlan(ledger, doc, phase, plan, levels, actor, now)
		if err != nil {
			return err
		}
		if err := ledger.SaveAll(ctx, levels); err != nil {
			return &domain.PostingError{DocID: doc.ID, Cause: err}
		}
		if err := movRepo.CreateBatch(ctx, moves); err != nil {
			return &domain.PostingError{DocID: doc.ID, Cause: err}
		}
		if err := markPhase(doc, phase, actor, now); err != nil {
			return err
		}
		if err := docRepo.Update(ctx, doc); err != nil {
			return &domain.PostingError{DocID: doc.ID, Cause: err}
		}

		res.doc = doc
		res.moves = len(moves)
		for _, k := range inventory.LockOrder(plan) {
			res.levels = append(res.levels, levels[k].Clone())
		}
		return nil
	})
	if err != nil {
		e.logFailure(docID, phase, err)
		return nil, err
	}

	e.log.Info().
		Str("doc_id", res.doc.ID).
		Str("doc_no", res.doc.DocNo).
		Str("doc_type", string(res.doc.DocType)).
		Str("doc_status", string(res.doc.DocStatus)).
		Str("phase", string(phase)).
		Int("movements", res.moves).
		Msg("documento aplicado al ledger")
	e.events.Publish(ctx, postingEvents(res, phase, actor)...)
	return res.doc, nil
}

// applyPlan aplica cada movimiento sobre las filas ya bloqueadas y arma el diario.
// El costo arrastrado es el costo unitario de la fila de salida antes de aplicarla.
func applyPlan(
	ledger *Ledger,
	doc *entity.StockDoc,
	phase inventory.Phase,
	plan []inventory.Movement,
	levels map[entity.StockKey]*entity.StockLevel,
	actor string,
	now time.Time,
) ([]*entity.StockMovement, error) {
	outCost := make([]decimal.Decimal, len(plan))
	moves := make([]*entity.StockMovement, 0, len(plan))
	for i, m := range plan {
		lvl, ok := levels[m.Key]
		if !ok {
			return nil, &domain.PostingError{DocID: doc.ID, LineNo: m.LineNo, Cause: &domain.IntegrityError{Detail: "fila de stock no bloqueada"}}
		}
		cost, err := movementCost(m, outCost)
		if err != nil {
			return nil, &domain.PostingError{DocID: doc.ID, LineNo: m.LineNo, Cause: err}
		}
		outCost[i] = lvl.UnitCost
		ledger.apply(lvl, m.Delta, cost)

		unit := lvl.UnitCost
		if m.Delta.IsNegative() {
			unit = outCost[i]
		} else if cost != nil {
			unit = *cost
		}
		unit = unit.Round(entity.CostScale)
		moves = append(moves, &entity.StockMovement{
			ID:          newID(),
			TenantID:    doc.TenantID,
			StockDocID:  doc.ID,
			DocType:     doc.DocType,
			Phase:       string(phase),
			LineID:      m.LineID,
			LineNo:      m.LineNo,
			WarehouseID: m.Key.WarehouseID,
			VariantID:   m.Key.VariantID,
			Bucket:      m.Key.Bucket,
			Quantity:    m.Delta,
			UnitCost:    unit,
			TotalCost:   m.Delta.Mul(unit).Round(entity.CostScale),
			CreatedAt:   now,
			CreatedBy:   actor,
		})
	}
	return moves, nil
}

// movementCost costo unitario que acompaña al movimiento (nil = no toca el costo).
func movementCost(m inventory.Movement, outCost []decimal.Decimal) (*decimal.Decimal, error) {
	carry := func() (*decimal.Decimal, error) {
		if m.CarryFrom < 0 || m.CarryFrom >= len(outCost) {
			return nil, &domain.IntegrityError{Detail: "entrada sin salida de la cual arrastrar costo"}
		}
		c := outCost[m.CarryFrom]
		return &c, nil
	}
	switch m.Cost {
	case inventory.CostLine:
		c := m.LineCost
		return &c, nil
	case inventory.CostLineIfSet:
		if m.LineCost.IsPositive() {
			c := m.LineCost
			return &c, nil
		}
		return nil, nil
	case inventory.CostCarry:
		return carry()
	case inventory.CostLineOrCarry:
		if m.LineCost.IsPositive() {
			c := m.LineCost
			return &c, nil
		}
		return carry()
	}
	return nil, nil
}

func checkPhase(doc *entity.StockDoc, phase inventory.Phase) error {
	var ok bool
	to := entity.DocStatusPosted
	switch phase {
	case inventory.PhasePost:
		ok = doc.CanBePosted()
	case inventory.PhaseShip:
		ok, to = doc.CanBeShipped(), entity.DocStatusShipped
	case inventory.PhaseReceive:
		ok = doc.CanBeReceived()
	}
	if !ok {
		return &domain.StatusTransitionError{DocID: doc.ID, Current: string(doc.DocStatus), Requested: string(to)}
	}
	return nil
}

func markPhase(doc *entity.StockDoc, phase inventory.Phase, actor string, now time.Time) error {
	switch phase {
	case inventory.PhaseShip:
		return doc.MarkShipped(actor, now)
	case inventory.PhaseReceive:
		return doc.MarkReceived(actor, now)
	}
	return doc.MarkPosted(actor, now)
}

func postingEvents(res postingResult, phase inventory.Phase, actor string) []entity.StockEvent {
	docType := entity.EventDocumentPosted
	switch phase {
	case inventory.PhaseShip:
		docType = entity.EventDocumentShipped
	case inventory.PhaseReceive:
		docType = entity.EventDocumentReceived
	}
	at := time.Now().UTC()
	if res.doc.ProcessedAt != nil {
		at = *res.doc.ProcessedAt
	}
	events := make([]entity.StockEvent, 0, len(res.levels)+1)
	events = append(events, docEvent(docType, res.doc, actor, at))
	for _, lvl := range res.levels {
		events = append(events, levelEvent(entity.EventStockLevelChanged, lvl, actor, at))
	}
	return events
}

func docEvent(eventType string, doc *entity.StockDoc, actor string, at time.Time) entity.StockEvent {
	return entity.StockEvent{
		ID:         newID(),
		Type:       eventType,
		TenantID:   doc.TenantID,
		Actor:      actor,
		DocID:      doc.ID,
		DocNo:      doc.DocNo,
		DocType:    doc.DocType,
		DocStatus:  doc.DocStatus,
		OccurredAt: at,
	}
}

func levelEvent(eventType string, lvl *entity.StockLevel, actor string, at time.Time) entity.StockEvent {
	qty, avail, cost := lvl.Quantity, lvl.AvailableQty, lvl.UnitCost
	return entity.StockEvent{
		ID:          newID(),
		Type:        eventType,
		TenantID:    lvl.TenantID,
		Actor:       actor,
		WarehouseID: lvl.WarehouseID,
		VariantID:   lvl.VariantID,
		Bucket:      lvl.Bucket,
		Quantity:    &qty,
		Available:   &avail,
		UnitCost:    &cost,
		OccurredAt:  at,
	}
}

func (e *PostingEngine) logFailure(docID string, phase inventory.Phase, err error) {
	ev := e.log.Warn()
	if errors.Is(err, domain.ErrIntegrity) {
		ev = e.log.Error()
	}
	var ins *domain.InsufficientStockError
	if errors.As(err, &ins) {
		ev = ev.Str("warehouse_id", ins.WarehouseID).Str("variant_id", ins.VariantID).Str("shortfall", ins.Shortfall().String())
	}
	ev.Err(err).Str("doc_id", docID).Str("phase", string(phase)).Msg("posteo rechazado")
}
