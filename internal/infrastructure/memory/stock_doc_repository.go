package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

var _ repository.StockDocRepository = (*docRepo)(nil)

type docRepo struct {
	s  *Store
	tx *txState
}

// Create rechaza ids repetidos y números repetidos por (tenant, tipo), como la restricción única.
func (r *docRepo) Create(_ context.Context, doc *entity.StockDoc) error {
	if r.lookup(doc.ID) != nil {
		return domain.ErrDuplicate
	}
	for _, d := range r.all() {
		if d.TenantID == doc.TenantID && d.DocType == doc.DocType && d.DocNo == doc.DocNo {
			return domain.ErrConflict
		}
	}
	r.write(doc.Clone())
	return nil
}

func (r *docRepo) Update(_ context.Context, doc *entity.StockDoc) error {
	if r.lookup(doc.ID) == nil {
		return &domain.NotFoundError{Resource: "documento", ID: doc.ID}
	}
	r.write(doc.Clone())
	return nil
}

func (r *docRepo) GetByID(_ context.Context, tenantID, id string) (*entity.StockDoc, error) {
	d := r.lookup(id)
	if d == nil || d.TenantID != tenantID {
		return nil, nil
	}
	return d, nil
}

func (r *docRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockDoc, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *docRepo) List(_ context.Context, tenantID string, f repository.StockDocFilter) ([]*entity.StockDoc, error) {
	var out []*entity.StockDoc
	for _, d := range r.all() {
		if d.TenantID != tenantID {
			continue
		}
		if f.DocType != "" && d.DocType != f.DocType {
			continue
		}
		if f.DocStatus != "" && d.DocStatus != f.DocStatus {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].DocNo > out[j].DocNo
	})
	return paginate(out, f.Limit, f.Offset), nil
}

// LockNumbering la transacción ya tiene txMu.
func (r *docRepo) LockNumbering(context.Context, string, entity.DocType) error { return nil }

func (r *docRepo) MaxDocNo(_ context.Context, tenantID string, docType entity.DocType, prefix string) (string, error) {
	var nos []string
	for _, d := range r.all() {
		if d.TenantID == tenantID && d.DocType == docType {
			nos = append(nos, d.DocNo)
		}
	}
	return inventory.MaxDocNo(prefix, nos), nil
}

func (r *docRepo) lookup(id string) *entity.StockDoc {
	if r.tx != nil {
		if d, ok := r.tx.docs[id]; ok {
			return d.Clone()
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if d, ok := r.s.docs[id]; ok {
		return d.Clone()
	}
	return nil
}

func (r *docRepo) write(d *entity.StockDoc) {
	if r.tx != nil {
		r.tx.docs[d.ID] = d
		return
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.docs[d.ID] = d
}

func (r *docRepo) all() []*entity.StockDoc {
	merged := make(map[string]*entity.StockDoc)
	r.s.mu.RLock()
	for id, d := range r.s.docs {
		merged[id] = d
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, d := range r.tx.docs {
			merged[id] = d
		}
	}
	out := make([]*entity.StockDoc, 0, len(merged))
	for _, d := range merged {
		out = append(out, d.Clone())
	}
	return out
}
