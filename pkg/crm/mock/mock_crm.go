// Package mock implements an in-memory replacement for the AJHB CRM backend.
// It satisfies crm.Backend, so it can be handed to crm.NewWithBackend in
// tests and local development, and it powers the crm-sandbox server.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajhb/crm_sdk_go/internal/devseed"
	"github.com/ajhb/crm_sdk_go/pkg/crm"
)

// Store is a mutex-guarded table store with sqlite-like autoincrement IDs.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	now    func() time.Time
}

type table struct {
	nextID int64
	rows   map[int64]crm.Record
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the clock used for health timestamps (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed loads initial rows, typically decoded via devseed.LoadTables. Rows
// carrying an "id" keep it; others receive the next autoincrement value.
func (s *Store) Seed(tables devseed.Tables) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, rows := range tables {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("mock crm: seed entry missing table name")
		}
		t := s.table(name)
		for _, row := range rows {
			rec := make(crm.Record, len(row))
			for k, v := range row {
				rec[k] = v
			}
			id, ok := asInt64(rec["id"])
			if !ok || id <= 0 {
				id = t.nextID
			}
			rec["id"] = id
			t.rows[id] = rec
			if id >= t.nextID {
				t.nextID = id + 1
			}
		}
	}
	return nil
}

func (s *Store) table(name string) *table {
	t := s.tables[name]
	if t == nil {
		t = &table{nextID: 1, rows: make(map[int64]crm.Record)}
		s.tables[name] = t
	}
	return t
}

// ListAll returns every row of a table ordered by id.
func (s *Store) ListAll(ctx context.Context, name string) ([]crm.Record, error) {
	if err := validTable(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[name]
	if t == nil {
		return []crm.Record{}, nil
	}

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]crm.Record, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, cloneRecord(t.rows[id]))
	}
	return rows, nil
}

// GetOne returns a single row or crm.ErrNotFound.
func (s *Store) GetOne(ctx context.Context, name string, id int64) (crm.Record, error) {
	if err := validTable(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[name]
	if t == nil {
		return nil, crm.ErrNotFound
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, crm.ErrNotFound
	}
	return cloneRecord(row), nil
}

// Insert stores a new row and returns its assigned id.
func (s *Store) Insert(ctx context.Context, name string, rec crm.Record) (int64, error) {
	if err := validTable(name); err != nil {
		return 0, err
	}
	if len(rec) == 0 {
		return 0, fmt.Errorf("mock crm: no data supplied for insert into %s", name)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(name)
	id := t.nextID
	t.nextID++

	stored := cloneRecord(rec)
	stored["id"] = id
	t.rows[id] = stored
	return id, nil
}

// Replace merges the supplied fields into an existing row.
func (s *Store) Replace(ctx context.Context, name string, id int64, rec crm.Record) error {
	if err := validTable(name); err != nil {
		return err
	}
	if len(rec) == 0 {
		return fmt.Errorf("mock crm: no data supplied for update of %s/%d", name, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[name]
	if t == nil {
		return crm.ErrNotFound
	}
	existing, ok := t.rows[id]
	if !ok {
		return crm.ErrNotFound
	}
	for k, v := range rec {
		existing[k] = v
	}
	existing["id"] = id
	return nil
}

// Remove deletes a row.
func (s *Store) Remove(ctx context.Context, name string, id int64) error {
	if err := validTable(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[name]
	if t == nil {
		return crm.ErrNotFound
	}
	if _, ok := t.rows[id]; !ok {
		return crm.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

// DashboardStats aggregates the seeded tables the way the backend's SQL does.
func (s *Store) DashboardStats(ctx context.Context) (crm.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return crm.DashboardStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return crm.DashboardStats{
		TotalClientes: s.count("clientes"),
		TotalAsientos: s.count("asientos"),
		TotalActivos:  s.count("activos"),
		CuentasCobrar: s.sumSaldo("cuentasPorCobrar", "pendiente"),
		CuentasPagar:  s.sumSaldo("cuentasPorPagar", "pendiente"),
		SaldoBancos:   s.sumSaldo("bancos", ""),
	}, nil
}

// Health reports the store as always healthy.
func (s *Store) Health(ctx context.Context) (*crm.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &crm.HealthStatus{
		Status:    "ok",
		Message:   "Mock backend funcionando correctamente",
		Timestamp: s.now().Format(time.RFC3339),
	}, nil
}

func (s *Store) count(name string) int64 {
	t := s.tables[name]
	if t == nil {
		return 0
	}
	return int64(len(t.rows))
}

func (s *Store) sumSaldo(name, estado string) float64 {
	t := s.tables[name]
	if t == nil {
		return 0
	}
	var total float64
	for _, row := range t.rows {
		if estado != "" {
			if st, _ := row["estado"].(string); st != estado {
				continue
			}
		}
		if v, ok := asFloat64(row["saldo"]); ok {
			total += v
		}
	}
	return total
}

func validTable(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("mock crm: table name is required")
	}
	return nil
}

func cloneRecord(rec crm.Record) crm.Record {
	out := make(crm.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
