package crm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajhb/crm_sdk_go/internal/httpx"
	"github.com/ajhb/crm_sdk_go/pkg/crm"
)

// recorder captures Reporter side effects for assertions.
type recorder struct {
	mu      sync.Mutex
	errors  []string
	notices []string
}

func (r *recorder) Errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, format)
}

func (r *recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

func (r *recorder) noticeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func fastPolicy() httpx.Option {
	return httpx.WithRetryPolicy(httpx.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	})
}

func quiet() httpx.Option {
	return httpx.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(t *testing.T, url string, rec *recorder) *crm.Client {
	t.Helper()
	client, err := crm.New(url, rec, fastPolicy(), quiet())
	require.NoError(t, err)
	return client
}

func TestGetAllRecoversAfterTransientFailures(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/clientes", r.URL.Path)
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if n <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error":"Error de base de datos"}`)
			return
		}
		io.WriteString(w, `[{"id":1,"name":"A"}]`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	rows := client.GetAll(context.Background(), "clientes")

	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["name"])
	assert.Equal(t, 4, attempts)
	assert.Zero(t, rec.noticeCount())
}

func TestGetAllFailureYieldsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Error interno del servidor"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	rows := client.GetAll(context.Background(), "clientes")

	require.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Equal(t, 1, rec.errorCount())
	assert.Equal(t, 1, rec.noticeCount())
}

func TestGetAllConnectivityFailureYieldsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	rows := client.GetAll(context.Background(), "clientes")

	require.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Equal(t, 1, rec.noticeCount())
}

func TestAddSurfacesBackendErrorVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"db locked"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	id, err := client.Add(context.Background(), "clientes", crm.Record{"nombre": "A"})

	require.Error(t, err)
	assert.Equal(t, "db locked", err.Error())
	assert.Zero(t, id)
	assert.Equal(t, 1, rec.noticeCount())
}

func TestAddExhaustedRetriesNeverFabricatesID(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"Error de base de datos"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	id, err := client.Add(context.Background(), "clientes", crm.Record{"nombre": "A"})

	require.Error(t, err)
	assert.Zero(t, id)
	assert.Equal(t, 4, attempts)

	var httpErr *httpx.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestAddReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec crm.Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "A", rec["nombre"])
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":42,"message":"Creado exitosamente"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	id, err := client.Add(context.Background(), "clientes", crm.Record{"nombre": "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestAddRejectsResponseWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"message":"Creado exitosamente"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	_, err := client.Add(context.Background(), "clientes", crm.Record{"nombre": "A"})
	require.ErrorIs(t, err, crm.ErrMissingID)
}

func TestGetReturnsNilOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"No encontrado"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	row := client.Get(context.Background(), "clientes", 99)

	assert.Nil(t, row)
	assert.Equal(t, 1, rec.errorCount())
	assert.Zero(t, rec.noticeCount(), "read-one failures must not notify")
}

func TestGetIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/clientes/1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":1,"nombre":"A","empresa":"ACME"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	first := client.Get(context.Background(), "clientes", 1)
	second := client.Get(context.Background(), "clientes", 1)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestPutFailureNotifiesAndReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"Registro no encontrado"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	err := client.Put(context.Background(), "clientes", 5, crm.Record{"nombre": "B"})

	require.Error(t, err)
	assert.Equal(t, "Registro no encontrado", err.Error())
	assert.Equal(t, 1, rec.noticeCount())
}

func TestDeleteFailureNotifiesAndReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Error interno del servidor"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	err := client.Delete(context.Background(), "clientes", 5)

	require.Error(t, err)
	assert.Equal(t, 1, rec.noticeCount())
}

func TestDeleteSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/clientes/5", r.URL.Path)
		io.WriteString(w, `{"message":"Eliminado exitosamente"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	require.NoError(t, client.Delete(context.Background(), "clientes", 5))
	assert.Zero(t, rec.noticeCount())
}

func TestGetStatsReturnsAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/stats/dashboard", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"totalClientes":12,"totalAsientos":3,"totalActivos":1,"cuentasCobrar":150.5,"cuentasPagar":75.25,"saldoBancos":1000}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	stats := client.GetStats(context.Background())

	assert.Equal(t, int64(12), stats.TotalClientes)
	assert.Equal(t, 150.5, stats.CuentasCobrar)
	assert.Equal(t, float64(1000), stats.SaldoBancos)
}

func TestGetStatsZeroedOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Error interno del servidor"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	stats := client.GetStats(context.Background())

	assert.Equal(t, crm.DashboardStats{}, stats)
	assert.Equal(t, 1, rec.errorCount())
}

func TestHealthIsNeverRetried(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	_, err := client.Health(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestHealthReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok","message":"Backend funcionando correctamente","timestamp":"2026-08-23T10:00:00"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	client := newTestClient(t, srv.URL, rec)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
}

// Every read degrades, every write errors, regardless of failure category.
func TestFacadePolicyOverFailingBackend(t *testing.T) {
	rec := &recorder{}
	client := crm.NewWithBackend(newFailingBackend(nil), rec)

	rows := client.GetAll(context.Background(), "clientes")
	assert.Empty(t, rows)
	assert.Nil(t, client.Get(context.Background(), "clientes", 1))
	assert.Equal(t, crm.DashboardStats{}, client.GetStats(context.Background()))

	_, err := client.Add(context.Background(), "clientes", crm.Record{"nombre": "A"})
	assert.Error(t, err)
	assert.Error(t, client.Put(context.Background(), "clientes", 1, crm.Record{"nombre": "B"}))
	assert.Error(t, client.Delete(context.Background(), "clientes", 1))
}

type failingBackend struct {
	err error
}

func newFailingBackend(err error) *failingBackend {
	if err == nil {
		err = errors.New("backend caído")
	}
	return &failingBackend{err: err}
}

func (b *failingBackend) ListAll(context.Context, string) ([]crm.Record, error) {
	return nil, b.err
}

func (b *failingBackend) GetOne(context.Context, string, int64) (crm.Record, error) {
	return nil, b.err
}

func (b *failingBackend) Insert(context.Context, string, crm.Record) (int64, error) {
	return 0, b.err
}

func (b *failingBackend) Replace(context.Context, string, int64, crm.Record) error {
	return b.err
}

func (b *failingBackend) Remove(context.Context, string, int64) error {
	return b.err
}

func (b *failingBackend) DashboardStats(context.Context) (crm.DashboardStats, error) {
	return crm.DashboardStats{}, b.err
}

func (b *failingBackend) Health(context.Context) (*crm.HealthStatus, error) {
	return nil, b.err
}
