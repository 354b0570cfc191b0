package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

var ctx = context.Background()

func TestPost_RecepcionDeProveedor(t *testing.T) {
	f := newFixture(t)
	doc := f.post(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecSupp),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "100", "5.00")},
	})

	assert.Equal(t, "RCS-000001", doc.DocNo)
	assert.Equal(t, string(entity.DocStatusPosted), doc.DocStatus)
	assert.Equal(t, operator, doc.ProcessedBy)

	l := f.level(t, whMain, full13, entity.BucketOnHand)
	require.NotNil(t, l)
	assert.True(t, l.Quantity.Equal(dec("100")))
	assert.True(t, l.UnitCost.Equal(dec("5")))
	assert.True(t, l.TotalCost.Equal(dec("500")))
	assert.NotNil(t, l.LastTransactionDate)
}

func TestPost_CostoPromedioPonderado(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")
	f.receive(t, whMain, full13, "5", "8")

	l := f.level(t, whMain, full13, entity.BucketOnHand)
	assert.True(t, l.Quantity.Equal(dec("15")))
	assert.True(t, l.UnitCost.Equal(dec("6")), "costo %s", l.UnitCost)
	assert.True(t, l.TotalCost.Equal(dec("90")))
}

func TestPost_SalidaSinStockSuficiente(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeIssSale),
		SourceWhID: whMain,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "20", "0")},
	})

	_, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	require.Error(t, err)

	var perr *domain.PostingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.LineNo)
	var ins *domain.InsufficientStockError
	require.True(t, errors.As(err, &ins))
	assert.Equal(t, whMain, ins.WarehouseID)
	assert.Equal(t, full13, ins.VariantID)
	assert.True(t, ins.Requested.Equal(dec("20")))
	assert.True(t, ins.Available.Equal(dec("10")))
	assert.True(t, ins.Shortfall().Equal(dec("10")))

	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("10")))
	got, err := f.docs.GetDocument(ctx, tenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.DocStatusOpen), got.DocStatus)
}

func TestPost_LineasRepetidasSeAgreganAlChequear(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeIssLoad),
		SourceWhID: whMain,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "6", "0"), lineReq(full13, "6", "0")},
	})
	_, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("10")))
}

func TestPost_CargaDeCamion(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "50", "40")
	f.post(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeTrfTruck),
		SourceWhID: whMain,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "20", "0")},
	})

	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("30")))
	truck := f.level(t, whMain, full13, entity.BucketTruckStock)
	require.NotNil(t, truck)
	assert.True(t, truck.Quantity.Equal(dec("20")))
	assert.True(t, truck.UnitCost.Equal(dec("40")), "la carga arrastra el costo de la bodega")

	// descarga parcial
	f.post(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeTrfTruck),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "5", "0")},
	})
	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("35")))
	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketTruckStock).Equal(dec("15")))
}

func TestPost_ConversionVacioALleno(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, empty13, "30", "20")
	doc := f.post(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeConvFil),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(empty13, "-10", "0"), lineReq(full13, "10", "0")},
	})
	assert.Equal(t, "CNV-000001", doc.DocNo)

	assert.True(t, f.qtyOf(t, whMain, empty13, entity.BucketOnHand).Equal(dec("20")))
	fullLvl := f.level(t, whMain, full13, entity.BucketOnHand)
	require.NotNil(t, fullLvl)
	assert.True(t, fullLvl.Quantity.Equal(dec("10")))
	assert.True(t, fullLvl.UnitCost.Equal(dec("20")), "sin costo en la línea se arrastra el del vacío")
}

func TestPost_ConversionConCostoDeLlenado(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, empty13, "10", "20")
	f.post(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeConvFil),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "4", "35"), lineReq(empty13, "-4", "0")},
	})
	assert.True(t, f.level(t, whMain, full13, entity.BucketOnHand).UnitCost.Equal(dec("35")))
}

func TestPost_ConversionSinVacios(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeConvFil),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(empty13, "-1", "0"), lineReq(full13, "1", "0")},
	})
	_, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, f.level(t, whMain, full13, entity.BucketOnHand))
}

func TestPost_AjustePuedeDejarNegativo(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, empty13, "3", "10")
	f.post(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeAdjScrap),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(empty13, "-5", "0")},
	})
	l := f.level(t, whMain, empty13, entity.BucketOnHand)
	assert.True(t, l.Quantity.Equal(dec("-2")))
	assert.True(t, l.AvailableQty.Equal(dec("-2")))
	assert.True(t, l.UnitCost.Equal(dec("10")))
}

func TestPost_GasAGranelUsaVarianteBulk(t *testing.T) {
	f := newFixture(t)
	f.post(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecFill),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{{GasType: "GLP", Quantity: dec("1200.5"), UnitCost: dec("3")}},
	})
	assert.True(t, f.qtyOf(t, whMain, bulkGLP, entity.BucketOnHand).Equal(dec("1200.5")))
}

func TestCancel_NoTocaElLedger(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecRet),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(empty13, "8", "0")},
	})
	out, err := f.docs.CancelDocument(ctx, tenant, operator, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.DocStatusCancelled), out.DocStatus)
	assert.Equal(t, operator, out.CancelledBy)
	assert.Nil(t, f.level(t, whMain, empty13, entity.BucketOnHand))

	_, err = f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrStatusTransition)
	_, err = f.docs.CancelDocument(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrStatusTransition)
}

func TestPost_DosVecesSeRechaza(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecSupp),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "7", "1")},
	})
	_, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	require.NoError(t, err)

	_, err = f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	var st *domain.StatusTransitionError
	require.True(t, errors.As(err, &st))
	assert.Equal(t, string(entity.DocStatusPosted), st.Current)

	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("7")))
	moves, err := f.docs.ListMovements(ctx, tenant, doc.ID)
	require.NoError(t, err)
	assert.Len(t, moves, 1)
}

func TestPost_ConcurrenteDelMismoDocumentoAplicaUnaVez(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecSupp),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "3", "1")},
	})

	const n = 8
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("3")))
}

func TestTraslado_ConservaCantidad(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "40", "10")
	f.post(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeTrfWh),
		SourceWhID: whMain,
		DestWhID:   whSec,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "15", "0")},
	})
	src := f.qtyOf(t, whMain, full13, entity.BucketOnHand)
	dst := f.qtyOf(t, whSec, full13, entity.BucketOnHand)
	assert.True(t, src.Equal(dec("25")))
	assert.True(t, dst.Equal(dec("15")))
	assert.True(t, src.Add(dst).Equal(dec("40")))
	assert.True(t, f.level(t, whSec, full13, entity.BucketOnHand).UnitCost.Equal(dec("10")))
}

func TestTraslado_FallaDeEscrituraRevierteTodo(t *testing.T) {
	f := newFixtureWithRunner(t, func(r inventory.TxRunner) inventory.TxRunner {
		return &faultyRunner{inner: r, failAt: 2}
	})
	f.receive(t, whMain, full13, "10", "5")
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeTrfWh),
		SourceWhID: whMain,
		DestWhID:   whSec,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "4", "0")},
	})

	_, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	require.ErrorIs(t, err, errDiskFull)
	var perr *domain.PostingError
	assert.True(t, errors.As(err, &perr))

	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("10")), "el origen no debe cambiar")
	assert.Nil(t, f.level(t, whSec, full13, entity.BucketOnHand), "el destino no debe existir")
	got, err := f.docs.GetDocument(ctx, tenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.DocStatusOpen), got.DocStatus)
	moves, err := f.docs.ListMovements(ctx, tenant, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestTraslado_EnvioYRecepcion(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "20", "12")
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeXfer),
		SourceWhID: whMain,
		DestWhID:   whSec,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "8", "0")},
	})

	shipped, err := f.docs.ShipTransfer(ctx, tenant, operator, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.DocStatusShipped), shipped.DocStatus)
	assert.True(t, f.qtyOf(t, whMain, full13, entity.BucketOnHand).Equal(dec("12")))
	assert.True(t, f.qtyOf(t, whSec, full13, entity.BucketInTransit).Equal(dec("8")))
	assert.True(t, f.qtyOf(t, whSec, full13, entity.BucketOnHand).IsZero())

	_, err = f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrStatusTransition, "un traslado enviado sólo se recibe")

	received, err := f.docs.ReceiveTransfer(ctx, tenant, operator, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.DocStatusPosted), received.DocStatus)
	assert.True(t, f.qtyOf(t, whSec, full13, entity.BucketInTransit).IsZero())
	dst := f.level(t, whSec, full13, entity.BucketOnHand)
	assert.True(t, dst.Quantity.Equal(dec("8")))
	assert.True(t, dst.UnitCost.Equal(dec("12")))

	moves, err := f.docs.ListMovements(ctx, tenant, doc.ID)
	require.NoError(t, err)
	require.Len(t, moves, 4)
	assert.Equal(t, "SHIP", moves[0].Phase)
	assert.Equal(t, "RECEIVE", moves[3].Phase)

	_, err = f.docs.ReceiveTransfer(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrStatusTransition)
}

func TestPost_ReservasNoSePuedenDespachar(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")
	res, err := f.stock.ReserveStock(ctx, tenant, operator, dto.ReserveStockRequest{WarehouseID: whMain, VariantID: full13, Quantity: dec("8")})
	require.NoError(t, err)
	require.True(t, res.Granted)

	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeIssSale),
		SourceWhID: whMain,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "3", "0")},
	})
	_, err = f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	var ins *domain.InsufficientStockError
	require.True(t, errors.As(err, &ins))
	assert.True(t, ins.Available.Equal(dec("2")))
}

func TestPost_EmiteEventosDespuesDelCommit(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "5", "5")
	assert.Equal(t, []string{
		entity.EventDocumentCreated,
		entity.EventDocumentPosted,
		entity.EventStockLevelChanged,
	}, f.events.types())

	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeIssSale),
		SourceWhID: whMain,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "50", "0")},
	})
	_, err := f.docs.PostDocument(ctx, tenant, operator, doc.ID)
	require.Error(t, err)
	assert.Len(t, f.events.types(), 4, "un posteo fallido no publica")
}

func TestPost_DocumentoDeOtroTenant(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecSupp),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "1", "1")},
	})
	_, err := f.docs.PostDocument(ctx, "otro-tenant", operator, doc.ID)
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestPost_RevalidaPermisosDelQuePostea(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:  string(entity.DocTypeRecSupp),
		DestWhID: whMain,
		Lines:    []dto.StockDocLineRequest{lineReq(full13, "1", "1")},
	})
	_, err := f.docs.PostDocument(ctx, tenant, outsider, doc.ID)
	var perm *domain.PermissionError
	require.True(t, errors.As(err, &perm))
	assert.Equal(t, entity.RoleStockReceive, perm.Role)
	assert.Nil(t, f.level(t, whMain, full13, entity.BucketOnHand))
}

func TestTraslado_RecepcionSoloExigeLaBodegaDestino(t *testing.T) {
	f := newFixture(t)
	const receptor = "u-receptor"
	f.store.Grant(receptor, whSec, entity.RoleStockReceive)
	f.receive(t, whMain, full13, "10", "7")
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeXfer),
		SourceWhID: whMain,
		DestWhID:   whSec,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "4", "0")},
	})
	_, err := f.docs.ShipTransfer(ctx, tenant, operator, doc.ID)
	require.NoError(t, err)

	// sin rol en el destino no recibe
	_, err = f.docs.ReceiveTransfer(ctx, tenant, outsider, doc.ID)
	var perm *domain.PermissionError
	require.True(t, errors.As(err, &perm))
	assert.Equal(t, whSec, perm.WarehouseID)
	assert.Equal(t, entity.RoleStockReceive, perm.Role)

	// el origen cerrado después del despacho no bloquea la recepción
	f.store.PutWarehouse(entity.Warehouse{ID: whMain, TenantID: tenant, Code: "PRI", Name: "Principal", Kind: entity.WarehouseKindDepot, Active: false})

	received, err := f.docs.ReceiveTransfer(ctx, tenant, receptor, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.DocStatusPosted), received.DocStatus)
	assert.True(t, f.qtyOf(t, whSec, full13, entity.BucketInTransit).IsZero())
	assert.True(t, f.qtyOf(t, whSec, full13, entity.BucketOnHand).Equal(dec("4")))
}

func TestTraslado_RecepcionEnDestinoInactivo(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "7")
	doc := f.create(t, dto.CreateStockDocRequest{
		DocType:    string(entity.DocTypeXfer),
		SourceWhID: whMain,
		DestWhID:   whSec,
		Lines:      []dto.StockDocLineRequest{lineReq(full13, "4", "0")},
	})
	_, err := f.docs.ShipTransfer(ctx, tenant, operator, doc.ID)
	require.NoError(t, err)

	f.store.PutWarehouse(entity.Warehouse{ID: whSec, TenantID: tenant, Code: "SEC", Name: "Secundaria", Kind: entity.WarehouseKindDepot, Active: false})
	_, err = f.docs.ReceiveTransfer(ctx, tenant, operator, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, f.qtyOf(t, whSec, full13, entity.BucketInTransit).Equal(dec("4")))
}
