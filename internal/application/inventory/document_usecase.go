package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

// DocumentUseCase casos de uso del ciclo de vida de documentos de stock:
// creación numerada, edición de líneas en OPEN, posteo, envío/recepción y cancelación.
type DocumentUseCase struct {
	txRunner  TxRunner
	docRepo   repository.StockDocRepository
	movRepo   repository.StockMovementRepository
	validator *DocumentValidator
	engine    *PostingEngine
	events    EventPublisher
	printer   DocumentPrinter
	log       *logger.Logger
	now       func() time.Time
}

// NewDocumentUseCase construye el caso de uso. docRepo y movRepo se usan sólo para lecturas.
func NewDocumentUseCase(
	txRunner TxRunner,
	docRepo repository.StockDocRepository,
	movRepo repository.StockMovementRepository,
	validator *DocumentValidator,
	engine *PostingEngine,
	events EventPublisher,
	log *logger.Logger,
) *DocumentUseCase {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentUseCase{
		txRunner:  txRunner,
		docRepo:   docRepo,
		movRepo:   movRepo,
		validator: validator,
		engine:    engine,
		events:    events,
		log:       log.Component("stock_docs"),
		now:       time.Now,
	}
}

// CreateDocument crea el documento en OPEN con el siguiente número de su tipo.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, tenantID, actor string, in dto.CreateStockDocRequest) (*dto.StockDocResponse, error) {
	now := uc.now().UTC()
	doc := &entity.StockDoc{
		ID:         newID(),
		TenantID:   tenantID,
		DocType:    entity.DocType(in.DocType),
		DocStatus:  entity.DocStatusOpen,
		SourceWhID: in.SourceWhID,
		DestWhID:   in.DestWhID,
		RefDocID:   in.RefDocID,
		RefDocType: in.RefDocType,
		Notes:      in.Notes,
		CreatedAt:  now,
		CreatedBy:  actor,
		UpdatedAt:  now,
	}
	if err := doc.ReplaceLines(toLines(in.Lines, now)); err != nil {
		return nil, err
	}
	if _, err := uc.validator.Validate(ctx, doc, actor); err != nil {
		return nil, err
	}

	err := uc.txRunner.Run(ctx, func(
		_ repository.StockLevelRepository,
		docRepo repository.StockDocRepository,
		_ repository.StockMovementRepository,
	) error {
		docNo, err := nextDocNo(ctx, docRepo, tenantID, doc.DocType)
		if err != nil {
			return err
		}
		doc.DocNo = docNo
		return docRepo.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("doc_id", doc.ID).Str("doc_no", doc.DocNo).Str("doc_type", string(doc.DocType)).Int("lines", len(doc.Lines)).Msg("documento creado")
	uc.events.Publish(ctx, docEvent(entity.EventDocumentCreated, doc, actor, now))
	return ToStockDocResponse(doc), nil
}

// GetDocument documento con sus líneas.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, tenantID, id string) (*dto.StockDocResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &domain.NotFoundError{Resource: "documento", ID: id}
	}
	return ToStockDocResponse(doc), nil
}

// PrintDocument genera el PDF del documento con los nombres de bodegas y variantes.
// Los datos de catálogo faltantes se imprimen por id; no es un error.
func (uc *DocumentUseCase) PrintDocument(ctx context.Context, tenantID, id string) ([]byte, error) {
	if uc.printer == nil {
		return nil, domain.NewValidation("pdf", "impresión no configurada")
	}
	doc, err := uc.docRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &domain.NotFoundError{Resource: "documento", ID: id}
	}
	refs := PrintRefs{Variants: make(map[string]*entity.Variant, len(doc.Lines))}
	if doc.SourceWhID != "" {
		if refs.Source, err = uc.validator.warehouseRepo.GetByID(ctx, tenantID, doc.SourceWhID); err != nil {
			return nil, err
		}
	}
	if doc.DestWhID != "" {
		if refs.Dest, err = uc.validator.warehouseRepo.GetByID(ctx, tenantID, doc.DestWhID); err != nil {
			return nil, err
		}
	}
	for _, l := range doc.Lines {
		if l.VariantID == "" || refs.Variants[l.VariantID] != nil {
			continue
		}
		v, err := uc.validator.variantRepo.GetByID(ctx, tenantID, l.VariantID)
		if err != nil {
			return nil, err
		}
		if v != nil {
			refs.Variants[l.VariantID] = v
		}
	}
	return uc.printer.PrintStockDoc(ctx, doc, refs)
}

// SetPrinter habilita PrintDocument.
func (uc *DocumentUseCase) SetPrinter(p DocumentPrinter) { uc.printer = p }

// ListDocuments lista por tenant con filtros opcionales de tipo y estado.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, tenantID string, in dto.StockDocFilterRequest) (*dto.StockDocListResponse, error) {
	page := dto.PageRequest{Limit: in.Limit, Offset: in.Offset}
	page.Normalize()
	list, err := uc.docRepo.List(ctx, tenantID, repository.StockDocFilter{
		DocType:   entity.DocType(in.DocType),
		DocStatus: entity.DocStatus(in.DocStatus),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockDocResponse, 0, len(list))
	for _, d := range list {
		items = append(items, *ToStockDocResponse(d))
	}
	return &dto.StockDocListResponse{Items: items, Page: dto.NewPageResponse(page, len(items))}, nil
}

// AddLine agrega una línea a un documento OPEN y revalida el documento completo.
func (uc *DocumentUseCase) AddLine(ctx context.Context, tenantID, actor, docID string, in dto.StockDocLineRequest) (*dto.StockDocResponse, error) {
	return uc.modify(ctx, tenantID, actor, docID, func(doc *entity.StockDoc, now time.Time) error {
		return doc.AddLine(toLines([]dto.StockDocLineRequest{in}, now)[0])
	})
}

// ReplaceLines reemplaza todas las líneas de un documento OPEN.
func (uc *DocumentUseCase) ReplaceLines(ctx context.Context, tenantID, actor, docID string, in dto.ReplaceLinesRequest) (*dto.StockDocResponse, error) {
	return uc.modify(ctx, tenantID, actor, docID, func(doc *entity.StockDoc, now time.Time) error {
		return doc.ReplaceLines(toLines(in.Lines, now))
	})
}

func (uc *DocumentUseCase) modify(ctx context.Context, tenantID, actor, docID string, change func(*entity.StockDoc, time.Time) error) (*dto.StockDocResponse, error) {
	var out *entity.StockDoc
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockLevelRepository,
		docRepo repository.StockDocRepository,
		_ repository.StockMovementRepository,
	) error {
		doc, err := docRepo.GetForUpdate(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return &domain.NotFoundError{Resource: "documento", ID: docID}
		}
		now := uc.now().UTC()
		if err := change(doc, now); err != nil {
			return err
		}
		if _, err := uc.validator.Validate(ctx, doc, actor); err != nil {
			return err
		}
		doc.UpdatedAt = now
		if err := docRepo.Update(ctx, doc); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToStockDocResponse(out), nil
}

// PostDocument aplica el documento al ledger (OPEN -> POSTED).
func (uc *DocumentUseCase) PostDocument(ctx context.Context, tenantID, actor, docID string) (*dto.StockDocResponse, error) {
	doc, err := uc.engine.Post(ctx, tenantID, docID, actor)
	if err != nil {
		return nil, err
	}
	return ToStockDocResponse(doc), nil
}

// ShipTransfer primer paso de un traslado entre bodegas (OPEN -> SHIPPED).
func (uc *DocumentUseCase) ShipTransfer(ctx context.Context, tenantID, actor, docID string) (*dto.StockDocResponse, error) {
	doc, err := uc.engine.Ship(ctx, tenantID, docID, actor)
	if err != nil {
		return nil, err
	}
	return ToStockDocResponse(doc), nil
}

// ReceiveTransfer segundo paso de un traslado entre bodegas (SHIPPED -> POSTED).
func (uc *DocumentUseCase) ReceiveTransfer(ctx context.Context, tenantID, actor, docID string) (*dto.StockDocResponse, error) {
	doc, err := uc.engine.Receive(ctx, tenantID, docID, actor)
	if err != nil {
		return nil, err
	}
	return ToStockDocResponse(doc), nil
}

// CancelDocument OPEN -> CANCELLED. No toca el ledger.
func (uc *DocumentUseCase) CancelDocument(ctx context.Context, tenantID, actor, docID string) (*dto.StockDocResponse, error) {
	var out *entity.StockDoc
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockLevelRepository,
		docRepo repository.StockDocRepository,
		_ repository.StockMovementRepository,
	) error {
		doc, err := docRepo.GetForUpdate(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return &domain.NotFoundError{Resource: "documento", ID: docID}
		}
		if err := doc.MarkCancelled(actor, uc.now().UTC()); err != nil {
			return err
		}
		if err := docRepo.Update(ctx, doc); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("doc_id", out.ID).Str("doc_no", out.DocNo).Msg("documento cancelado")
	uc.events.Publish(ctx, docEvent(entity.EventDocumentCancelled, out, actor, *out.CancelledAt))
	return ToStockDocResponse(out), nil
}

// ListMovements diario de piernas aplicadas por el documento.
func (uc *DocumentUseCase) ListMovements(ctx context.Context, tenantID, docID string) ([]dto.StockMovementResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &domain.NotFoundError{Resource: "documento", ID: docID}
	}
	list, err := uc.movRepo.ListByDoc(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID,
			Phase:       m.Phase,
			LineNo:      m.LineNo,
			WarehouseID: m.WarehouseID,
			VariantID:   m.VariantID,
			Bucket:      string(m.Bucket),
			Quantity:    m.Quantity,
			UnitCost:    m.UnitCost,
			TotalCost:   m.TotalCost,
			CreatedAt:   m.CreatedAt,
			CreatedBy:   m.CreatedBy,
		})
	}
	return out, nil
}

func toLines(in []dto.StockDocLineRequest, now time.Time) []entity.StockDocLine {
	lines := make([]entity.StockDocLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, entity.StockDocLine{
			ID:        newID(),
			VariantID: l.VariantID,
			GasType:   l.GasType,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			CreatedAt: now,
		})
	}
	return lines
}

// ToStockDocResponse mapea la entidad a su DTO.
func ToStockDocResponse(d *entity.StockDoc) *dto.StockDocResponse {
	if d == nil {
		return nil
	}
	lines := make([]dto.StockDocLineResponse, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, dto.StockDocLineResponse{
			ID:        l.ID,
			LineNo:    l.LineNo,
			VariantID: l.VariantID,
			GasType:   l.GasType,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	return &dto.StockDocResponse{
		ID:          d.ID,
		TenantID:    d.TenantID,
		DocNo:       d.DocNo,
		DocType:     string(d.DocType),
		DocStatus:   string(d.DocStatus),
		SourceWhID:  d.SourceWhID,
		DestWhID:    d.DestWhID,
		RefDocID:    d.RefDocID,
		RefDocType:  d.RefDocType,
		Notes:       d.Notes,
		Lines:       lines,
		CreatedAt:   d.CreatedAt,
		CreatedBy:   d.CreatedBy,
		UpdatedAt:   d.UpdatedAt,
		ProcessedAt: d.ProcessedAt,
		ProcessedBy: d.ProcessedBy,
		CancelledAt: d.CancelledAt,
		CancelledBy: d.CancelledBy,
	}
}
