package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.VariantRepository       = (*variantRepo)(nil)
	_ repository.WarehouseRepository     = (*warehouseRepo)(nil)
)

type movementRepo struct {
	s  *Store
	tx *txState
}

func (r *movementRepo) CreateBatch(_ context.Context, movements []*entity.StockMovement) error {
	cp := make([]*entity.StockMovement, 0, len(movements))
	for _, m := range movements {
		c := *m
		cp = append(cp, &c)
	}
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, cp...)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, cp...)
	return nil
}

func (r *movementRepo) ListByDoc(_ context.Context, tenantID, docID string) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	all := append([]*entity.StockMovement(nil), r.s.movements...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		all = append(all, r.tx.movements...)
	}
	var out []*entity.StockMovement
	for _, m := range all {
		if m.TenantID == tenantID && m.StockDocID == docID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

type variantRepo struct{ s *Store }

func (r *variantRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Variant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.variants[id]
	if !ok || v.TenantID != tenantID {
		return nil, nil
	}
	c := *v
	return &c, nil
}

// GetBulkByGasType si hay varias variantes granel activas gana la de menor id.
func (r *variantRepo) GetBulkByGasType(_ context.Context, tenantID, gasType string) (*entity.Variant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *entity.Variant
	for _, v := range r.s.variants {
		if v.TenantID != tenantID || v.GasType != gasType || v.Role != entity.VariantRoleBulk || !v.Active {
			continue
		}
		if best == nil || v.ID < best.ID {
			best = v
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

type warehouseRepo struct{ s *Store }

func (r *warehouseRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok || w.TenantID != tenantID {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (r *warehouseRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	var out []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if w.TenantID == tenantID {
			c := *w
			out = append(out, &c)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return paginate(out, limit, offset), nil
}

type accessChecker struct{ s *Store }

func (a *accessChecker) CanAccess(_ context.Context, actor, warehouseID, role string) (bool, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	_, ok := a.s.grants[grantKey{userID: actor, warehouseID: warehouseID, role: role}]
	return ok, nil
}
