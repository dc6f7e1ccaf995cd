package crm

import "errors"

// Record is a row of a backend table. The SDK enforces no schema; fields are
// whatever the application stored.
type Record map[string]any

// DashboardStats carries the aggregates served by /api/stats/dashboard.
// Field names match the backend wire format.
type DashboardStats struct {
	TotalClientes int64   `json:"totalClientes"`
	TotalAsientos int64   `json:"totalAsientos"`
	TotalActivos  int64   `json:"totalActivos"`
	CuentasCobrar float64 `json:"cuentasCobrar"`
	CuentasPagar  float64 `json:"cuentasPagar"`
	SaldoBancos   float64 `json:"saldoBancos"`
}

// HealthStatus is the /api/health response.
type HealthStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// CreateResult is the body returned by a successful POST.
type CreateResult struct {
	ID      *int64 `json:"id"`
	Message string `json:"message"`
}

var (
	// ErrNotFound is returned when a row is missing.
	ErrNotFound = errors.New("crm: not found")
	// ErrMissingID signals a create response without an identifier field.
	ErrMissingID = errors.New("crm: create response missing id")
)
