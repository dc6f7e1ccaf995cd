package crm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajhb/crm_sdk_go/internal/devseed"
)

// mockStore is the in-memory backend used in mock runtime mode. It mirrors
// the sqlite semantics of the real backend: autoincrement integer IDs,
// not-found on missing rows, dashboard aggregates computed from table
// contents.
type mockStore struct {
	mu     sync.RWMutex
	tables map[string]*mockTable
}

type mockTable struct {
	nextID int64
	rows   map[int64]Record
}

func newMockStore() *mockStore {
	return &mockStore{tables: make(map[string]*mockTable)}
}

func (s *mockStore) table(name string) *mockTable {
	t := s.tables[name]
	if t == nil {
		t = &mockTable{nextID: 1, rows: make(map[int64]Record)}
		s.tables[name] = t
	}
	return t
}

func (s *mockStore) seed(tables devseed.Tables) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, rows := range tables {
		t := s.table(name)
		for _, row := range rows {
			rec := Record{}
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

func (s *mockStore) listAll(ctx context.Context, table string) ([]Record, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[table]
	if t == nil {
		return []Record{}, nil
	}

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]Record, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, cloneRecord(t.rows[id]))
	}
	return rows, nil
}

func (s *mockStore) getOne(ctx context.Context, table string, id int64) (Record, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[table]
	if t == nil {
		return nil, ErrNotFound
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(row), nil
}

func (s *mockStore) insert(ctx context.Context, table string, rec Record) (int64, error) {
	if err := validTable(table); err != nil {
		return 0, err
	}
	if len(rec) == 0 {
		return 0, fmt.Errorf("crm: no data supplied for insert into %s", table)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	id := t.nextID
	t.nextID++

	stored := cloneRecord(rec)
	stored["id"] = id
	t.rows[id] = stored
	return id, nil
}

func (s *mockStore) replace(ctx context.Context, table string, id int64, rec Record) error {
	if err := validTable(table); err != nil {
		return err
	}
	if len(rec) == 0 {
		return fmt.Errorf("crm: no data supplied for update of %s/%d", table, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[table]
	if t == nil {
		return ErrNotFound
	}
	existing, ok := t.rows[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range rec {
		existing[k] = v
	}
	existing["id"] = id
	return nil
}

func (s *mockStore) remove(ctx context.Context, table string, id int64) error {
	if err := validTable(table); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[table]
	if t == nil {
		return ErrNotFound
	}
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (s *mockStore) dashboardStats(ctx context.Context) (DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return DashboardStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := DashboardStats{
		TotalClientes: s.count("clientes"),
		TotalAsientos: s.count("asientos"),
		TotalActivos:  s.count("activos"),
		CuentasCobrar: s.sumSaldo("cuentasPorCobrar", "pendiente"),
		CuentasPagar:  s.sumSaldo("cuentasPorPagar", "pendiente"),
		SaldoBancos:   s.sumSaldo("bancos", ""),
	}
	return stats, nil
}

func (s *mockStore) health(ctx context.Context) (*HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &HealthStatus{
		Status:    "ok",
		Message:   "Mock backend funcionando correctamente",
		Timestamp: time.Now().Format(time.RFC3339),
	}, nil
}

func (s *mockStore) count(table string) int64 {
	t := s.tables[table]
	if t == nil {
		return 0
	}
	return int64(len(t.rows))
}

// sumSaldo totals the "saldo" field of a table, optionally restricted to rows
// whose "estado" matches.
func (s *mockStore) sumSaldo(table, estado string) float64 {
	t := s.tables[table]
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

func validTable(table string) error {
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("crm: table name is required")
	}
	return nil
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
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
