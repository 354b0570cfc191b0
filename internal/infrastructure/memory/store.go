package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
)

// Store almacenamiento en memoria para desarrollo y tests.
// txMu serializa transacciones completas (equivale a bloquear todas las filas);
// mu protege los mapas para lecturas concurrentes fuera de transacción.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	levels     map[entity.StockKey]*entity.StockLevel
	docs       map[string]*entity.StockDoc
	movements  []*entity.StockMovement
	variants   map[string]*entity.Variant
	warehouses map[string]*entity.Warehouse
	grants     map[grantKey]struct{}

	now func() time.Time
}

type grantKey struct {
	userID      string
	warehouseID string
	role        string
}

// New store vacío.
func New() *Store {
	return &Store{
		levels:     make(map[entity.StockKey]*entity.StockLevel),
		docs:       make(map[string]*entity.StockDoc),
		variants:   make(map[string]*entity.Variant),
		warehouses: make(map[string]*entity.Warehouse),
		grants:     make(map[grantKey]struct{}),
		now:        time.Now,
	}
}

// PutWarehouse alta o reemplazo de una bodega.
func (s *Store) PutWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = &w
}

// PutVariant alta o reemplazo de una variante.
func (s *Store) PutVariant(v entity.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = &v
}

// Grant concede roles a un usuario sobre una bodega.
func (s *Store) Grant(userID, warehouseID string, roles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range roles {
		s.grants[grantKey{userID: userID, warehouseID: warehouseID, role: r}] = struct{}{}
	}
}

// Revoke retira un rol.
func (s *Store) Revoke(userID, warehouseID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, grantKey{userID: userID, warehouseID: warehouseID, role: role})
}

// StockLevels repositorio sin transacción (lecturas y limpieza).
func (s *Store) StockLevels() repository.StockLevelRepository { return &levelRepo{s: s} }

// StockDocs repositorio de documentos sin transacción.
func (s *Store) StockDocs() repository.StockDocRepository { return &docRepo{s: s} }

// StockMovements diario sin transacción.
func (s *Store) StockMovements() repository.StockMovementRepository { return &movementRepo{s: s} }

// Variants catálogo de variantes.
func (s *Store) Variants() repository.VariantRepository { return &variantRepo{s: s} }

// Warehouses catálogo de bodegas.
func (s *Store) Warehouses() repository.WarehouseRepository { return &warehouseRepo{s: s} }

// AccessChecker autorización por concesiones explícitas.
func (s *Store) AccessChecker() inventory.AccessChecker { return &accessChecker{s: s} }

// TxRunner runner transaccional sobre el store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner las escrituras de la transacción van a un overlay que sólo se vuelca al
// store si fn termina sin error; un error descarta el overlay completo.
type TxRunner struct {
	s *Store
}

// Run ejecuta fn con repos atados a una transacción nueva.
func (r *TxRunner) Run(ctx context.Context, fn func(
	levelRepo repository.StockLevelRepository,
	docRepo repository.StockDocRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	t := &txState{
		levels: make(map[entity.StockKey]*entity.StockLevel),
		docs:   make(map[string]*entity.StockDoc),
	}
	if err := fn(&levelRepo{s: r.s, tx: t}, &docRepo{s: r.s, tx: t}, &movementRepo{s: r.s, tx: t}); err != nil {
		return err
	}
	r.s.commit(t)
	return nil
}

// txState overlay de escrituras de una transacción.
type txState struct {
	levels    map[entity.StockKey]*entity.StockLevel
	docs      map[string]*entity.StockDoc
	movements []*entity.StockMovement
}

func (s *Store) commit(t *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, l := range t.levels {
		s.levels[k] = l
	}
	for id, d := range t.docs {
		s.docs[id] = d
	}
	s.movements = append(s.movements, t.movements...)
}

func newID() string { return uuid.New().String() }
