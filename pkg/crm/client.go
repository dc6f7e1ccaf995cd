package crm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ajhb/crm_sdk_go/internal/crmapi"
	"github.com/ajhb/crm_sdk_go/internal/httpx"
)

// Client provides access to the AJHB CRM REST API. Its surface mirrors the
// browser shim it replaces: read operations degrade to safe defaults so
// rendering code never observes a failure, write operations return the error
// so callers can react.
type Client struct {
	backend  Backend
	reporter Reporter
}

// New constructs a Client bound to the provided base URL.
func New(baseURL string, reporter Reporter, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl, reporter), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client, reporter Reporter) *Client {
	return NewWithBackend(&httpBackend{client: httpClient}, reporter)
}

// NewWithBackend allows callers to supply a custom backend (e.g., mocks).
func NewWithBackend(b Backend, reporter Reporter) *Client {
	if reporter == nil {
		reporter = NewLogReporter(nil)
	}
	return &Client{backend: b, reporter: reporter}
}

// GetAll returns every row of a table. Any failure yields an empty slice
// after logging and notifying; it never returns an error.
func (c *Client) GetAll(ctx context.Context, table string) []Record {
	rows, err := c.backend.ListAll(ctx, table)
	if err != nil {
		c.reporter.Errorf("crm: cargar %s: %v", table, err)
		c.reporter.Notify(fmt.Sprintf("Error al cargar %s", table))
		return []Record{}
	}
	if rows == nil {
		rows = []Record{}
	}
	return rows
}

// Get returns a single row, or nil when the row is missing or the call
// failed. Failures are logged but never notified; a missing row is an
// ordinary condition for rendering code.
func (c *Client) Get(ctx context.Context, table string, id int64) Record {
	row, err := c.backend.GetOne(ctx, table, id)
	if err != nil {
		c.reporter.Errorf("crm: obtener %s/%d: %v", table, id, err)
		return nil
	}
	return row
}

// Add creates a row and returns its backend-assigned identifier. Failures
// are logged, notified, and returned so callers can block navigation until
// the write actually happened.
func (c *Client) Add(ctx context.Context, table string, rec Record) (int64, error) {
	id, err := c.backend.Insert(ctx, table, rec)
	if err != nil {
		c.reporter.Errorf("crm: guardar en %s: %v", table, err)
		c.reporter.Notify(fmt.Sprintf("Error al guardar en %s", table))
		return 0, err
	}
	return id, nil
}

// Put replaces the fields of an existing row.
func (c *Client) Put(ctx context.Context, table string, id int64, rec Record) error {
	if err := c.backend.Replace(ctx, table, id, rec); err != nil {
		c.reporter.Errorf("crm: actualizar %s/%d: %v", table, id, err)
		c.reporter.Notify(fmt.Sprintf("Error al actualizar %s", table))
		return err
	}
	return nil
}

// Delete removes a row.
func (c *Client) Delete(ctx context.Context, table string, id int64) error {
	if err := c.backend.Remove(ctx, table, id); err != nil {
		c.reporter.Errorf("crm: eliminar %s/%d: %v", table, id, err)
		c.reporter.Notify(fmt.Sprintf("Error al eliminar de %s", table))
		return err
	}
	return nil
}

// GetStats returns the dashboard aggregates, or a zeroed record on any
// failure so dashboards render with empty counters instead of crashing.
func (c *Client) GetStats(ctx context.Context) DashboardStats {
	stats, err := c.backend.DashboardStats(ctx)
	if err != nil {
		c.reporter.Errorf("crm: estadísticas del dashboard: %v", err)
		return DashboardStats{}
	}
	return stats
}

// Health checks the backend once, without retries. Intended for the startup
// probe; callers decide what a failure means.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	return c.backend.Health(ctx)
}

// Backend is the raw CRUD surface underneath the facade. Unlike the facade
// it reports every failure, for callers that need the error.
type Backend interface {
	ListAll(ctx context.Context, table string) ([]Record, error)
	GetOne(ctx context.Context, table string, id int64) (Record, error)
	Insert(ctx context.Context, table string, rec Record) (int64, error)
	Replace(ctx context.Context, table string, id int64, rec Record) error
	Remove(ctx context.Context, table string, id int64) error
	DashboardStats(ctx context.Context) (DashboardStats, error)
	Health(ctx context.Context) (*HealthStatus, error)
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) ListAll(ctx context.Context, table string) ([]Record, error) {
	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   path,
	})
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, err
	}
	var rows []Record
	if err := crmapi.Decode(data, &rows); err != nil {
		return nil, fmt.Errorf("crm: decode %s list: %w", table, err)
	}
	return rows, nil
}

func (b *httpBackend) GetOne(ctx context.Context, table string, id int64) (Record, error) {
	path, err := rowPath(table, id)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   path,
	})
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, err
	}
	var row Record
	if err := crmapi.Decode(data, &row); err != nil {
		return nil, fmt.Errorf("crm: decode %s row: %w", table, err)
	}
	return row, nil
}

func (b *httpBackend) Insert(ctx context.Context, table string, rec Record) (int64, error) {
	path, err := tablePath(table)
	if err != nil {
		return 0, err
	}
	req, err := jsonRequest(http.MethodPost, path, rec)
	if err != nil {
		return 0, err
	}
	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return 0, err
	}
	var result CreateResult
	if err := crmapi.Decode(data, &result); err != nil {
		return 0, fmt.Errorf("crm: decode create response: %w", err)
	}
	if result.ID == nil {
		return 0, ErrMissingID
	}
	return *result.ID, nil
}

func (b *httpBackend) Replace(ctx context.Context, table string, id int64, rec Record) error {
	path, err := rowPath(table, id)
	if err != nil {
		return err
	}
	req, err := jsonRequest(http.MethodPut, path, rec)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return err
	}
	_, err = httpx.ReadAllAndClose(resp.Body)
	return err
}

func (b *httpBackend) Remove(ctx context.Context, table string, id int64) error {
	path, err := rowPath(table, id)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodDelete,
		Path:   path,
	})
	if err != nil {
		return err
	}
	_, err = httpx.ReadAllAndClose(resp.Body)
	return err
}

func (b *httpBackend) DashboardStats(ctx context.Context) (DashboardStats, error) {
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "api/stats/dashboard",
	})
	if err != nil {
		return DashboardStats{}, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return DashboardStats{}, err
	}
	var stats DashboardStats
	if err := crmapi.Decode(data, &stats); err != nil {
		return DashboardStats{}, fmt.Errorf("crm: decode dashboard stats: %w", err)
	}
	return stats, nil
}

func (b *httpBackend) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method:       http.MethodGet,
		Path:         "api/health",
		DisableRetry: true,
	})
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, err
	}
	var status HealthStatus
	if err := crmapi.Decode(data, &status); err != nil {
		return nil, fmt.Errorf("crm: decode health response: %w", err)
	}
	return &status, nil
}

func jsonRequest(method, path string, payload any) (*httpx.Request, error) {
	body, contentType, err := httpx.WithJSONBody(payload)
	if err != nil {
		return nil, fmt.Errorf("crm: encode payload: %w", err)
	}
	// httpx buffers the body so it can be replayed on retries.
	return &httpx.Request{
		Method: method,
		Path:   path,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   body,
	}, nil
}

func tablePath(table string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("crm: table name is required")
	}
	return "api/" + table, nil
}

func rowPath(table string, id int64) (string, error) {
	base, err := tablePath(table)
	if err != nil {
		return "", err
	}
	return base + "/" + strconv.FormatInt(id, 10), nil
}
