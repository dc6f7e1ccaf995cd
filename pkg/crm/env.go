package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/ajhb/crm_sdk_go/internal/devseed"
)

const (
	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

type envConfig struct {
	Mode     string `env:"CRM_RUNTIME_MODE" envDefault:"auto"`
	APIURL   string `env:"CRM_API_URL"`
	MockSeed string `env:"CRM_MOCK_SEED"`
}

// NewFromEnv initialises a Client based on CRM environment variables and
// returns the resolved mode ("http" or "mock"). In HTTP mode the backend
// health endpoint is probed exactly once; a failed probe only notifies the
// user, it never fails construction.
func NewFromEnv(ctx context.Context, reporter Reporter) (client *Client, mode string, err error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, "", fmt.Errorf("crm: parse environment: %w", err)
	}

	mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	baseURL := strings.TrimSpace(cfg.APIURL)

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newHTTPClient(ctx, baseURL, reporter)
		}
		return newMockClient(cfg.MockSeed, reporter)
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("crm: HTTP mode requires CRM_API_URL")
		}
		return newHTTPClient(ctx, baseURL, reporter)
	case modeMock:
		return newMockClient(cfg.MockSeed, reporter)
	default:
		return nil, "", fmt.Errorf("crm: unsupported CRM_RUNTIME_MODE value %q", mode)
	}
}

func newHTTPClient(ctx context.Context, baseURL string, reporter Reporter) (*Client, string, error) {
	client, err := New(baseURL, reporter)
	if err != nil {
		return nil, "", fmt.Errorf("crm: init HTTP client: %w", err)
	}
	if _, err := client.Health(ctx); err != nil {
		client.reporter.Errorf("crm: health check %s: %v", baseURL, err)
		client.reporter.Notify("No hay conexión con el servidor")
	}
	return client, modeHTTP, nil
}

func newMockClient(seedPath string, reporter Reporter) (*Client, string, error) {
	store := newMockStore()
	if path := strings.TrimSpace(seedPath); path != "" {
		tables, err := devseed.LoadTables(path)
		if err != nil {
			return nil, "", fmt.Errorf("crm: load mock seed: %w", err)
		}
		if err := store.seed(tables); err != nil {
			return nil, "", fmt.Errorf("crm: apply mock seed: %w", err)
		}
	}
	return NewWithBackend(&mockBackend{store: store}, reporter), modeMock, nil
}

type mockBackend struct {
	store *mockStore
}

func (b *mockBackend) ListAll(ctx context.Context, table string) ([]Record, error) {
	return b.store.listAll(ctx, table)
}

func (b *mockBackend) GetOne(ctx context.Context, table string, id int64) (Record, error) {
	return b.store.getOne(ctx, table, id)
}

func (b *mockBackend) Insert(ctx context.Context, table string, rec Record) (int64, error) {
	return b.store.insert(ctx, table, rec)
}

func (b *mockBackend) Replace(ctx context.Context, table string, id int64, rec Record) error {
	return b.store.replace(ctx, table, id, rec)
}

func (b *mockBackend) Remove(ctx context.Context, table string, id int64) error {
	return b.store.remove(ctx, table, id)
}

func (b *mockBackend) DashboardStats(ctx context.Context) (DashboardStats, error) {
	return b.store.dashboardStats(ctx)
}

func (b *mockBackend) Health(ctx context.Context) (*HealthStatus, error) {
	return b.store.health(ctx)
}
