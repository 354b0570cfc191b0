package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var key1 = entity.StockKey{TenantID: "t1", WarehouseID: "w1", VariantID: "v1", Bucket: entity.BucketOnHand}

func TestTxRunner_ErrorDescartaEscrituras(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	err := s.TxRunner().Run(context.Background(), func(l repository.StockLevelRepository, d repository.StockDocRepository, m repository.StockMovementRepository) error {
		lvl, err := l.EnsureForUpdate(context.Background(), key1)
		require.NoError(t, err)
		lvl.Quantity = decimal.NewFromInt(5)
		require.NoError(t, l.Upsert(context.Background(), lvl))
		require.NoError(t, d.Create(context.Background(), &entity.StockDoc{ID: "d1", TenantID: "t1", DocType: entity.DocTypeRecFill, DocNo: "RCF-000001"}))
		require.NoError(t, m.CreateBatch(context.Background(), []*entity.StockMovement{{ID: "m1", TenantID: "t1", StockDocID: "d1"}}))

		// dentro de la tx se leen las escrituras propias
		got, err := l.Get(context.Background(), key1)
		require.NoError(t, err)
		assert.True(t, got.Quantity.Equal(decimal.NewFromInt(5)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.StockLevels().Get(context.Background(), key1)
	require.NoError(t, err)
	assert.Nil(t, got)
	doc, err := s.StockDocs().GetByID(context.Background(), "t1", "d1")
	require.NoError(t, err)
	assert.Nil(t, doc)
	moves, err := s.StockMovements().ListByDoc(context.Background(), "t1", "d1")
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestTxRunner_CommitPublicaEscrituras(t *testing.T) {
	s := New()
	err := s.TxRunner().Run(context.Background(), func(l repository.StockLevelRepository, _ repository.StockDocRepository, _ repository.StockMovementRepository) error {
		lvl, err := l.EnsureForUpdate(context.Background(), key1)
		if err != nil {
			return err
		}
		lvl.Quantity = decimal.NewFromInt(3)
		lvl.Recompute()
		return l.Upsert(context.Background(), lvl)
	})
	require.NoError(t, err)

	got, err := s.StockLevels().Get(context.Background(), key1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.AvailableQty.Equal(decimal.NewFromInt(3)))
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.TxRunner().Run(ctx, func(repository.StockLevelRepository, repository.StockDocRepository, repository.StockMovementRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLevelRepo_LecturasDevuelvenCopias(t *testing.T) {
	s := New()
	repo := s.StockLevels()
	lvl, err := repo.EnsureForUpdate(context.Background(), key1)
	require.NoError(t, err)
	lvl.Quantity = decimal.NewFromInt(99)

	got, err := repo.Get(context.Background(), key1)
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero(), "mutar la copia no debe afectar el store")
}

func TestDocRepo_RestriccionesUnicas(t *testing.T) {
	s := New()
	repo := s.StockDocs()
	doc := &entity.StockDoc{ID: "d1", TenantID: "t1", DocType: entity.DocTypeIssSale, DocNo: "ISS-000001"}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.ErrorIs(t, repo.Create(context.Background(), doc), domain.ErrDuplicate)

	same := &entity.StockDoc{ID: "d2", TenantID: "t1", DocType: entity.DocTypeIssSale, DocNo: "ISS-000001"}
	assert.ErrorIs(t, repo.Create(context.Background(), same), domain.ErrConflict)

	otherTenant := &entity.StockDoc{ID: "d3", TenantID: "t2", DocType: entity.DocTypeIssSale, DocNo: "ISS-000001"}
	assert.NoError(t, repo.Create(context.Background(), otherTenant))

	err := repo.Update(context.Background(), &entity.StockDoc{ID: "nope", TenantID: "t1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocRepo_ListYMaxDocNo(t *testing.T) {
	s := New()
	repo := s.StockDocs()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, no := range []string{"ADV-000009", "ADV-000010", "ADV-000002"} {
		require.NoError(t, repo.Create(context.Background(), &entity.StockDoc{
			ID: no, TenantID: "t1", DocType: entity.DocTypeAdjVariance, DocNo: no,
			DocStatus: entity.DocStatusOpen, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	maxNo, err := repo.MaxDocNo(context.Background(), "t1", entity.DocTypeAdjVariance, "ADV")
	require.NoError(t, err)
	assert.Equal(t, "ADV-000010", maxNo)

	list, err := repo.List(context.Background(), "t1", repository.StockDocFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ADV-000002", list[0].DocNo, "más reciente primero")
	assert.Equal(t, "ADV-000010", list[1].DocNo)

	list, err = repo.List(context.Background(), "t1", repository.StockDocFilter{Limit: 2, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCatalogo_GranelYTenants(t *testing.T) {
	s := New()
	s.PutVariant(entity.Variant{ID: "b2", TenantID: "t1", GasType: "GLP", Role: entity.VariantRoleBulk, Active: true})
	s.PutVariant(entity.Variant{ID: "b1", TenantID: "t1", GasType: "GLP", Role: entity.VariantRoleBulk, Active: true})
	s.PutVariant(entity.Variant{ID: "b0", TenantID: "t1", GasType: "GLP", Role: entity.VariantRoleBulk, Active: false})
	s.PutVariant(entity.Variant{ID: "a0", TenantID: "t2", GasType: "GLP", Role: entity.VariantRoleBulk, Active: true})

	v, err := s.Variants().GetBulkByGasType(context.Background(), "t1", "GLP")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "b1", v.ID)

	v, err = s.Variants().GetByID(context.Background(), "t1", "a0")
	require.NoError(t, err)
	assert.Nil(t, v)

	s.PutWarehouse(entity.Warehouse{ID: "w2", TenantID: "t1", Code: "B"})
	s.PutWarehouse(entity.Warehouse{ID: "w1", TenantID: "t1", Code: "A"})
	whs, err := s.Warehouses().ListByTenant(context.Background(), "t1", 10, 0)
	require.NoError(t, err)
	require.Len(t, whs, 2)
	assert.Equal(t, "A", whs[0].Code)
}

func TestAccessChecker_Grants(t *testing.T) {
	s := New()
	s.Grant("u1", "w1", entity.RoleStockIssue, entity.RoleStockReceive)
	ok, err := s.AccessChecker().CanAccess(context.Background(), "u1", "w1", entity.RoleStockIssue)
	require.NoError(t, err)
	assert.True(t, ok)

	s.Revoke("u1", "w1", entity.RoleStockIssue)
	ok, _ = s.AccessChecker().CanAccess(context.Background(), "u1", "w1", entity.RoleStockIssue)
	assert.False(t, ok)
	ok, _ = s.AccessChecker().CanAccess(context.Background(), "u1", "w2", entity.RoleStockReceive)
	assert.False(t, ok)
}
