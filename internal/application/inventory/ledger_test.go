package inventory_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

func onHand(wh, variant string) entity.StockKey {
	return entity.StockKey{TenantID: tenant, WarehouseID: wh, VariantID: variant, Bucket: entity.BucketOnHand}
}

// inTx ejecuta fn con un ledger atado a una transacción del store.
func (f *fixture) inTx(t *testing.T, fn func(*inventory.Ledger) error) error {
	t.Helper()
	return f.store.TxRunner().Run(ctx, func(l repository.StockLevelRepository, _ repository.StockDocRepository, _ repository.StockMovementRepository) error {
		return fn(inventory.NewLedger(l, nil))
	})
}

func TestLedger_UpdateQuantityCreaLaFila(t *testing.T) {
	f := newFixture(t)
	cost := dec("7.5")
	err := f.inTx(t, func(l *inventory.Ledger) error {
		lvl, err := l.UpdateQuantity(ctx, onHand(whMain, full13), dec("4"), &cost)
		if err != nil {
			return err
		}
		assert.True(t, lvl.UnitCost.Equal(cost))
		return nil
	})
	require.NoError(t, err)

	l := f.level(t, whMain, full13, entity.BucketOnHand)
	require.NotNil(t, l)
	assert.True(t, l.Quantity.Equal(dec("4")))
	assert.True(t, l.AvailableQty.Equal(dec("4")))
	assert.True(t, l.TotalCost.Equal(dec("30")))
}

func TestLedger_SalidaNoCambiaCosto(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")
	cost := dec("100")
	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) error {
		_, err := l.UpdateQuantity(ctx, onHand(whMain, full13), dec("-3"), &cost)
		return err
	}))
	l := f.level(t, whMain, full13, entity.BucketOnHand)
	assert.True(t, l.Quantity.Equal(dec("7")))
	assert.True(t, l.UnitCost.Equal(dec("5")))
}

func TestLedger_ClaveInvalida(t *testing.T) {
	f := newFixture(t)
	err := f.inTx(t, func(l *inventory.Ledger) error {
		_, err := l.UpdateQuantity(ctx, entity.StockKey{TenantID: tenant, WarehouseID: whMain, VariantID: full13, Bucket: "OTRO"}, dec("1"), nil)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedger_ReservaYLiberacion(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")
	key := onHand(whMain, full13)

	var ok bool
	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		ok, err = l.Reserve(ctx, key, dec("11"))
		return err
	}))
	assert.False(t, ok, "no alcanza el disponible")

	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		ok, err = l.Reserve(ctx, key, dec("4"))
		return err
	}))
	assert.True(t, ok)
	lvl := f.level(t, whMain, full13, entity.BucketOnHand)
	assert.True(t, lvl.ReservedQty.Equal(dec("4")))
	assert.True(t, lvl.AvailableQty.Equal(dec("6")))
	assert.True(t, lvl.Quantity.Equal(dec("10")))

	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		ok, err = l.ReleaseReservation(ctx, key, dec("5"))
		return err
	}))
	assert.False(t, ok, "no se libera más de lo reservado")

	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		ok, err = l.ReleaseReservation(ctx, key, dec("4"))
		return err
	}))
	assert.True(t, ok)
	assert.True(t, f.level(t, whMain, full13, entity.BucketOnHand).AvailableQty.Equal(dec("10")))

	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		ok, err = l.Reserve(ctx, onHand(whSec, full13), dec("1"))
		return err
	}))
	assert.False(t, ok, "fila inexistente")
	assert.Nil(t, f.level(t, whSec, full13, entity.BucketOnHand))
}

func TestLedger_CantidadNoPositiva(t *testing.T) {
	f := newFixture(t)
	err := f.inTx(t, func(l *inventory.Ledger) error {
		_, err := l.Reserve(ctx, onHand(whMain, full13), decimal.Zero)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedger_TransferBetweenWarehouses(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whSec, empty13, "9", "3")

	var moved bool
	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		moved, err = l.TransferBetweenWarehouses(ctx, tenant, whSec, whMain, empty13, dec("9"), entity.BucketOnHand)
		return err
	}))
	assert.True(t, moved)
	assert.True(t, f.qtyOf(t, whSec, empty13, entity.BucketOnHand).IsZero())
	dst := f.level(t, whMain, empty13, entity.BucketOnHand)
	assert.True(t, dst.Quantity.Equal(dec("9")))
	assert.True(t, dst.UnitCost.Equal(dec("3")))

	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		moved, err = l.TransferBetweenWarehouses(ctx, tenant, whSec, whMain, empty13, dec("1"), entity.BucketOnHand)
		return err
	}))
	assert.False(t, moved)

	err := f.inTx(t, func(l *inventory.Ledger) error {
		_, err := l.TransferBetweenWarehouses(ctx, tenant, whMain, whMain, empty13, dec("1"), entity.BucketOnHand)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLedger_TraspasoRechazadoNoCreaFilas(t *testing.T) {
	f := newFixture(t)

	var moved bool
	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		moved, err = l.TransferBetweenStatuses(ctx, tenant, whMain, full13, entity.BucketOnHand, entity.BucketQuarantine, dec("5"))
		return err
	}))
	assert.False(t, moved)
	assert.Nil(t, f.level(t, whMain, full13, entity.BucketOnHand))
	assert.Nil(t, f.level(t, whMain, full13, entity.BucketQuarantine))

	// origen existente pero corto: ni el destino se crea ni el origen cambia
	f.receive(t, whMain, full13, "2", "4")
	require.NoError(t, f.inTx(t, func(l *inventory.Ledger) (err error) {
		moved, err = l.TransferBetweenWarehouses(ctx, tenant, whMain, whSec, full13, dec("3"), entity.BucketOnHand)
		return err
	}))
	assert.False(t, moved)
	assert.Nil(t, f.level(t, whSec, full13, entity.BucketOnHand))
	src := f.level(t, whMain, full13, entity.BucketOnHand)
	require.NotNil(t, src)
	assert.True(t, src.Quantity.Equal(dec("2")))
	assert.True(t, src.UnitCost.Equal(dec("4")))
}

func TestLedger_CostoRedondeadoASeisDecimales(t *testing.T) {
	f := newFixture(t)
	// (1*1 + 2*1.5) / 3 = 1.3333...
	f.receive(t, whMain, bulkGLP, "1", "1")
	f.receive(t, whMain, bulkGLP, "2", "1.5")

	l := f.level(t, whMain, bulkGLP, entity.BucketOnHand)
	require.NotNil(t, l)
	assert.True(t, l.UnitCost.Equal(dec("1.333333")), "unit_cost %s", l.UnitCost)
	assert.True(t, l.TotalCost.Equal(dec("3.999999")), "total_cost %s", l.TotalCost)
	assert.LessOrEqual(t, -l.UnitCost.Exponent(), entity.CostScale)
}

func TestLedger_ReservasConcurrentesNuncaSobrepasan(t *testing.T) {
	f := newFixture(t)
	f.receive(t, whMain, full13, "10", "5")

	const n = 30
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var ok bool
			err := f.inTx(t, func(l *inventory.Ledger) (err error) {
				ok, err = l.Reserve(ctx, onHand(whMain, full13), dec("1"))
				return err
			})
			if err == nil && ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
	l := f.level(t, whMain, full13, entity.BucketOnHand)
	assert.True(t, l.ReservedQty.Equal(dec("10")))
	assert.True(t, l.AvailableQty.IsZero())
	assert.True(t, l.AvailableQty.Equal(l.Quantity.Sub(l.ReservedQty)))
}
