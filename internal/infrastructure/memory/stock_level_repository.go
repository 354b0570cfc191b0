package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*levelRepo)(nil)

// levelRepo con tx == nil opera directo sobre el store.
type levelRepo struct {
	s  *Store
	tx *txState
}

func (r *levelRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	return r.lookup(key), nil
}

// GetForUpdate dentro de una transacción el bloqueo lo da txMu.
func (r *levelRepo) GetForUpdate(_ context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	return r.lookup(key), nil
}

func (r *levelRepo) EnsureForUpdate(_ context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	if l := r.lookup(key); l != nil {
		return l, nil
	}
	l := entity.NewStockLevel(newID(), key, r.s.now().UTC())
	r.write(l)
	return l.Clone(), nil
}

func (r *levelRepo) Upsert(_ context.Context, level *entity.StockLevel) error {
	r.write(level.Clone())
	return nil
}

func (r *levelRepo) ListByWarehouseVariant(_ context.Context, tenantID, warehouseID, variantID string) ([]*entity.StockLevel, error) {
	return r.list(func(l *entity.StockLevel) bool {
		return l.TenantID == tenantID && l.WarehouseID == warehouseID && l.VariantID == variantID
	}), nil
}

func (r *levelRepo) ListByWarehouse(_ context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	all := r.list(func(l *entity.StockLevel) bool {
		return l.TenantID == tenantID && l.WarehouseID == warehouseID
	})
	return paginate(all, limit, offset), nil
}

// DeleteEmpty espera a que no haya transacciones en curso, como el DELETE en PostgreSQL
// espera los bloqueos de fila.
func (r *levelRepo) DeleteEmpty(_ context.Context, tenantID, warehouseID string) (int64, error) {
	if r.tx == nil {
		r.s.txMu.Lock()
		defer r.s.txMu.Unlock()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, l := range r.s.levels {
		if k.TenantID == tenantID && k.WarehouseID == warehouseID && l.IsEmpty() {
			if r.tx != nil {
				if pending, ok := r.tx.levels[k]; ok && !pending.IsEmpty() {
					continue
				}
				delete(r.tx.levels, k)
			}
			delete(r.s.levels, k)
			n++
		}
	}
	return n, nil
}

func (r *levelRepo) lookup(key entity.StockKey) *entity.StockLevel {
	if r.tx != nil {
		if l, ok := r.tx.levels[key]; ok {
			return l.Clone()
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.levels[key]; ok {
		return l.Clone()
	}
	return nil
}

func (r *levelRepo) write(l *entity.StockLevel) {
	if r.tx != nil {
		r.tx.levels[l.Key()] = l
		return
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.levels[l.Key()] = l
}

func (r *levelRepo) list(match func(*entity.StockLevel) bool) []*entity.StockLevel {
	merged := make(map[entity.StockKey]*entity.StockLevel)
	r.s.mu.RLock()
	for k, l := range r.s.levels {
		if match(l) {
			merged[k] = l
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for k, l := range r.tx.levels {
			if match(l) {
				merged[k] = l
			}
		}
	}
	out := make([]*entity.StockLevel, 0, len(merged))
	for _, l := range merged {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
