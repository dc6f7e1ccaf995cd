// Package crm provides a client for the AJHB CRM REST backend. It replaces
// the browser-side fetch shim with the same surface: generic CRUD over named
// tables (/api/{table}), dashboard statistics (/api/stats/dashboard) and a
// one-shot health probe (/api/health). The Client facade applies the shim's
// failure policy — reads degrade to empty/zero values so rendering code never
// crashes, writes surface the error so callers can react — while the Backend
// interface underneath keeps full error reporting for callers that need it.
// Transient failures (503, timeouts, unreachable host) are retried with
// linear backoff by the underlying transport.
package crm
