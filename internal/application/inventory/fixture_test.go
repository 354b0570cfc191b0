package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
	"github.com/jhoicas/Cilindros-api/internal/infrastructure/memory"
)

const (
	tenant   = "t1"
	operator = "u-operador"
	outsider = "u-sin-permisos"

	whMain  = "w-1-principal"
	whSec   = "w-2-secundaria"
	whOff   = "w-9-inactiva"
	full13  = "v-full13"
	empty13 = "v-empty13"
	bulkGLP = "v-glp-granel"
	other13 = "v-empty13-propano"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recorder EventPublisher que guarda todo lo publicado.
type recorder struct {
	mu     sync.Mutex
	events []entity.StockEvent
}

func (r *recorder) Publish(_ context.Context, events ...entity.StockEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	validator *inventory.DocumentValidator
	engine    *inventory.PostingEngine
	docs      *inventory.DocumentUseCase
	stock     *inventory.StockUseCase
	events    *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, nil)
}

// newFixtureWithRunner permite envolver el TxRunner (p. ej. para inyectar fallas).
func newFixtureWithRunner(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner) *fixture {
	t.Helper()
	s := memory.New()
	s.PutWarehouse(entity.Warehouse{ID: whMain, TenantID: tenant, Code: "PRI", Name: "Principal", Kind: entity.WarehouseKindDepot, Active: true})
	s.PutWarehouse(entity.Warehouse{ID: whSec, TenantID: tenant, Code: "SEC", Name: "Secundaria", Kind: entity.WarehouseKindDepot, Active: true})
	s.PutWarehouse(entity.Warehouse{ID: whOff, TenantID: tenant, Code: "OFF", Name: "Cerrada", Kind: entity.WarehouseKindDepot, Active: false})
	s.PutVariant(entity.Variant{ID: full13, TenantID: tenant, SKU: "CIL-13-LL", Name: "Cilindro 13 kg lleno", GasType: "GLP", Role: entity.VariantRoleFull, Active: true})
	s.PutVariant(entity.Variant{ID: empty13, TenantID: tenant, SKU: "CIL-13-VA", Name: "Cilindro 13 kg vacío", GasType: "GLP", Role: entity.VariantRoleEmpty, PairedVariantID: full13, Active: true})
	s.PutVariant(entity.Variant{ID: other13, TenantID: tenant, SKU: "CIL-13-VP", Name: "Cilindro 13 kg vacío propano", GasType: "PROPANO", Role: entity.VariantRoleEmpty, Active: true})
	s.PutVariant(entity.Variant{ID: bulkGLP, TenantID: tenant, SKU: "GLP-GRANEL", Name: "GLP a granel", GasType: "GLP", Role: entity.VariantRoleBulk, Active: true})
	allRoles := []string{entity.RoleStockReceive, entity.RoleStockIssue, entity.RoleStockAdjust, entity.RoleStockReserve}
	for _, wh := range []string{whMain, whSec, whOff} {
		s.Grant(operator, wh, allRoles...)
	}

	var runner inventory.TxRunner = s.TxRunner()
	if wrap != nil {
		runner = wrap(runner)
	}
	rec := &recorder{}
	validator := inventory.NewDocumentValidator(s.Variants(), s.Warehouses(), s.AccessChecker())
	engine := inventory.NewPostingEngine(runner, validator, rec, nil)
	return &fixture{
		store:     s,
		validator: validator,
		engine:    engine,
		docs:      inventory.NewDocumentUseCase(runner, s.StockDocs(), s.StockMovements(), validator, engine, rec, nil),
		stock:     inventory.NewStockUseCase(runner, s.StockLevels(), s.AccessChecker(), rec, nil),
		events:    rec,
	}
}

func lineReq(variant, qty, cost string) dto.StockDocLineRequest {
	return dto.StockDocLineRequest{VariantID: variant, Quantity: dec(qty), UnitCost: dec(cost)}
}

func (f *fixture) create(t *testing.T, in dto.CreateStockDocRequest) *dto.StockDocResponse {
	t.Helper()
	doc, err := f.docs.CreateDocument(context.Background(), tenant, operator, in)
	require.NoError(t, err)
	return doc
}

func (f *fixture) post(t *testing.T, in dto.CreateStockDocRequest) *dto.StockDocResponse {
	t.Helper()
	doc := f.create(t, in)
	posted, err := f.docs.PostDocument(context.Background(), tenant, operator, doc.ID)
	require.NoError(t, err)
	return posted
}

// receive ingresa stock con una recepción de proveedor.
func (f *fixture) receive(t *testing.T, wh, variant, qty, cost string) {
	t.Helper()
	f.post(t, dto.CreateStockDocRequest{DocType: string(entity.DocTypeRecSupp), DestWhID: wh, Lines: []dto.StockDocLineRequest{lineReq(variant, qty, cost)}})
}

func (f *fixture) level(t *testing.T, wh, variant string, b entity.Bucket) *entity.StockLevel {
	t.Helper()
	l, err := f.store.StockLevels().Get(context.Background(), entity.StockKey{TenantID: tenant, WarehouseID: wh, VariantID: variant, Bucket: b})
	require.NoError(t, err)
	return l
}

// qtyOf cantidad de la fila; cero si no existe.
func (f *fixture) qtyOf(t *testing.T, wh, variant string, b entity.Bucket) decimal.Decimal {
	t.Helper()
	if l := f.level(t, wh, variant, b); l != nil {
		return l.Quantity
	}
	return decimal.Zero
}

// faultyRunner hace fallar el Upsert número failAt de cada transacción.
type faultyRunner struct {
	inner  inventory.TxRunner
	failAt int
}

var errDiskFull = errors.New("disco lleno")

func (r *faultyRunner) Run(ctx context.Context, fn func(repository.StockLevelRepository, repository.StockDocRepository, repository.StockMovementRepository) error) error {
	return r.inner.Run(ctx, func(l repository.StockLevelRepository, d repository.StockDocRepository, m repository.StockMovementRepository) error {
		return fn(&faultyLevels{StockLevelRepository: l, failAt: r.failAt}, d, m)
	})
}

type faultyLevels struct {
	repository.StockLevelRepository
	failAt int
	n      int
}

func (f *faultyLevels) Upsert(ctx context.Context, level *entity.StockLevel) error {
	f.n++
	if f.n == f.failAt {
		return errDiskFull
	}
	return f.StockLevelRepository.Upsert(ctx, level)
}
