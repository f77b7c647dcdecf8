// Package memory provides an in-memory waybill store with transactional
// semantics, substituting the postgres infrastructure in tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"fleet-waybill/internal/audit"
	blanks "fleet-waybill/internal/blanks/domain"
	stock "fleet-waybill/internal/stock/domain"
	waybill "fleet-waybill/internal/waybill/domain"
)

// Store keeps waybills, blanks, stock movements and audit entries in memory.
// It implements waybill.Reader and waybill.UnitOfWork: Run snapshots the
// whole state and restores it when the callback fails, mirroring a database
// rollback.
type Store struct {
	mu       sync.Mutex
	waybills map[string]*waybill.Waybill
	blanks   map[string]*blanks.Blank

	depletions []stock.Depletion
	entries    []audit.Entry

	// Error injection for dependency-failure tests.
	LedgerErr error
	BlanksErr error
	AuditErr  error
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		waybills: make(map[string]*waybill.Waybill),
		blanks:   make(map[string]*blanks.Blank),
	}
}

// AddBlank seeds one blank.
func (s *Store) AddBlank(b blanks.Blank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := b
	s.blanks[b.ID] = &copy
}

// Blank returns a copy of one blank for assertions.
func (s *Store) Blank(id string) (blanks.Blank, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blanks[id]
	if !ok {
		return blanks.Blank{}, false
	}
	return *b, true
}

// Depletions returns a copy of the recorded stock movements.
func (s *Store) Depletions() []stock.Depletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stock.Depletion(nil), s.depletions...)
}

// AuditEntries returns a copy of the recorded audit entries.
func (s *Store) AuditEntries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}

// Get loads a waybill copy, or waybill.ErrNotFound.
func (s *Store) Get(ctx context.Context, orgID, id string) (*waybill.Waybill, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	wb, ok := s.waybills[id]
	if !ok || wb.OrgID != orgID {
		return nil, waybill.ErrNotFound
	}
	return cloneWaybill(wb), nil
}

// List returns waybills matching the filter, newest trip first.
func (s *Store) List(ctx context.Context, orgID string, filter waybill.ListFilter) ([]waybill.Waybill, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []waybill.Waybill
	for _, wb := range s.waybills {
		if wb.OrgID != orgID {
			continue
		}
		if filter.VehicleID != "" && wb.VehicleID != filter.VehicleID {
			continue
		}
		if filter.DriverID != "" && wb.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != "" && wb.Status != filter.Status {
			continue
		}
		if !filter.DateFrom.IsZero() && wb.TripDate.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && wb.TripDate.After(filter.DateTo) {
			continue
		}
		result = append(result, *cloneWaybill(wb))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TripDate.After(result[j].TripDate)
	})
	return result, nil
}

// Run executes fn against the live state, restoring the pre-call snapshot
// when fn fails.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx waybill.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.snapshot()
	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	waybills   map[string]*waybill.Waybill
	blanks     map[string]*blanks.Blank
	depletions []stock.Depletion
	entries    []audit.Entry
}

func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		waybills:   make(map[string]*waybill.Waybill, len(s.waybills)),
		blanks:     make(map[string]*blanks.Blank, len(s.blanks)),
		depletions: append([]stock.Depletion(nil), s.depletions...),
		entries:    append([]audit.Entry(nil), s.entries...),
	}
	for id, wb := range s.waybills {
		snap.waybills[id] = cloneWaybill(wb)
	}
	for id, b := range s.blanks {
		copy := *b
		snap.blanks[id] = &copy
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.waybills = snap.waybills
	s.blanks = snap.blanks
	s.depletions = snap.depletions
	s.entries = snap.entries
}

type memTx struct {
	store *Store
}

func (t *memTx) Waybills() waybill.TxRepository { return &memRepo{store: t.store} }
func (t *memTx) Ledger() stock.Ledger           { return &memLedger{store: t.store} }
func (t *memTx) Blanks() blanks.Registry        { return &memRegistry{store: t.store} }
func (t *memTx) Audit() audit.Logger            { return &memAudit{store: t.store} }

type memRepo struct {
	store *Store
}

func (r *memRepo) GetForUpdate(ctx context.Context, orgID, id string) (*waybill.Waybill, error) {
	_ = ctx
	wb, ok := r.store.waybills[id]
	if !ok || wb.OrgID != orgID {
		return nil, waybill.ErrNotFound
	}
	return cloneWaybill(wb), nil
}

func (r *memRepo) Insert(ctx context.Context, wb *waybill.Waybill) error {
	_ = ctx
	if wb == nil {
		return waybill.ErrNilAggregate
	}
	r.store.waybills[wb.ID] = cloneWaybill(wb)
	return nil
}

func (r *memRepo) Update(ctx context.Context, wb *waybill.Waybill) error {
	return r.Insert(ctx, wb)
}

func (r *memRepo) UpdateStatus(ctx context.Context, wb *waybill.Waybill) error {
	return r.Insert(ctx, wb)
}

func (r *memRepo) ReplaceSegments(ctx context.Context, waybillID string, segments []waybill.RouteSegment) error {
	_ = ctx
	wb, ok := r.store.waybills[waybillID]
	if !ok {
		return waybill.ErrNotFound
	}
	wb.Segments = append([]waybill.RouteSegment(nil), segments...)
	return nil
}

func (r *memRepo) ReplaceFuelLines(ctx context.Context, waybillID string, lines []waybill.FuelLine) error {
	_ = ctx
	wb, ok := r.store.waybills[waybillID]
	if !ok {
		return waybill.ErrNotFound
	}
	wb.FuelLines = append([]waybill.FuelLine(nil), lines...)
	return nil
}

func (r *memRepo) Delete(ctx context.Context, orgID, id string) error {
	_ = ctx
	wb, ok := r.store.waybills[id]
	if !ok || wb.OrgID != orgID {
		return waybill.ErrNotFound
	}
	delete(r.store.waybills, id)
	return nil
}

type memLedger struct {
	store *Store
}

func (l *memLedger) AppendDepletion(ctx context.Context, depletion stock.Depletion) error {
	_ = ctx
	if l.store.LedgerErr != nil {
		return l.store.LedgerErr
	}
	if depletion.StockItemID == "" {
		return stock.ErrMissingStockItem
	}
	if depletion.Quantity <= 0 {
		return stock.ErrNonPositiveQuantity
	}
	if depletion.OccurredAt.IsZero() {
		depletion.OccurredAt = time.Now().UTC()
	}
	l.store.depletions = append(l.store.depletions, depletion)
	return nil
}

type memRegistry struct {
	store *Store
}

func (r *memRegistry) ReserveNext(ctx context.Context, orgID, driverID, departmentID string) (*blanks.Blank, error) {
	_ = ctx
	if r.store.BlanksErr != nil {
		return nil, r.store.BlanksErr
	}
	var candidate *blanks.Blank
	for _, b := range r.store.blanks {
		if b.OrgID != orgID || b.Status != blanks.StatusAvailable {
			continue
		}
		if b.DriverID != "" && b.DriverID != driverID {
			continue
		}
		if candidate == nil || lessBlank(b, candidate) {
			candidate = b
		}
	}
	if candidate == nil {
		return nil, blanks.ErrNoBlanksAvailable
	}
	return r.reserve(candidate, driverID, departmentID), nil
}

func (r *memRegistry) ReserveSpecific(ctx context.Context, orgID, blankID, driverID, departmentID string) (*blanks.Blank, error) {
	_ = ctx
	if r.store.BlanksErr != nil {
		return nil, r.store.BlanksErr
	}
	b, ok := r.store.blanks[blankID]
	if !ok || b.OrgID != orgID {
		return nil, blanks.ErrBlankNotFound
	}
	if b.Status != blanks.StatusAvailable {
		return nil, blanks.ErrBlankNotAvailable
	}
	return r.reserve(b, driverID, departmentID), nil
}

func (r *memRegistry) reserve(b *blanks.Blank, driverID, departmentID string) *blanks.Blank {
	b.Status = blanks.StatusReserved
	b.DriverID = driverID
	b.DepartmentID = departmentID
	b.ReservedAt = time.Now().UTC()
	copy := *b
	return &copy
}

func (r *memRegistry) Release(ctx context.Context, orgID, blankID string) error {
	_ = ctx
	if r.store.BlanksErr != nil {
		return r.store.BlanksErr
	}
	b, ok := r.store.blanks[blankID]
	if !ok || b.OrgID != orgID {
		return blanks.ErrBlankNotFound
	}
	if b.Status != blanks.StatusReserved {
		return blanks.ErrBlankNotReserved
	}
	b.Status = blanks.StatusAvailable
	b.ReservedAt = time.Time{}
	return nil
}

func (r *memRegistry) MarkUsed(ctx context.Context, blankID string) error {
	_ = ctx
	if r.store.BlanksErr != nil {
		return r.store.BlanksErr
	}
	b, ok := r.store.blanks[blankID]
	if !ok {
		return blanks.ErrBlankNotFound
	}
	if b.Status != blanks.StatusReserved {
		return blanks.ErrBlankNotReserved
	}
	b.Status = blanks.StatusUsed
	b.UsedAt = time.Now().UTC()
	return nil
}

type memAudit struct {
	store *Store
}

func (a *memAudit) Append(ctx context.Context, entry audit.Entry) error {
	_ = ctx
	if a.store.AuditErr != nil {
		return a.store.AuditErr
	}
	if entry.ID == "" {
		entry.ID = "audit-" + strconv.Itoa(len(a.store.entries)+1)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	a.store.entries = append(a.store.entries, entry)
	return nil
}

func lessBlank(a, b *blanks.Blank) bool {
	if a.Series != b.Series {
		return a.Series < b.Series
	}
	return a.Number < b.Number
}

func cloneWaybill(wb *waybill.Waybill) *waybill.Waybill {
	if wb == nil {
		return nil
	}
	copy := *wb
	copy.Segments = append([]waybill.RouteSegment(nil), wb.Segments...)
	copy.FuelLines = append([]waybill.FuelLine(nil), wb.FuelLines...)
	return &copy
}
