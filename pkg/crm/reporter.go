package crm

import (
	"fmt"
	"log/slog"
)

// Reporter receives the facade's failure side effects: Errorf for diagnostic
// logs, Notify for messages meant to reach the user (toasts, status bars).
// Supplying it keeps the client free of UI concerns.
type Reporter interface {
	Errorf(format string, args ...any)
	Notify(message string)
}

// NewLogReporter returns a Reporter backed by the supplied slog.Logger.
// Notifications are logged at warn level under a "notify" marker; wiring them
// to a real UI is up to the application.
func NewLogReporter(l *slog.Logger) Reporter {
	if l == nil {
		l = slog.Default()
	}
	return &logReporter{logger: l}
}

type logReporter struct {
	logger *slog.Logger
}

func (r *logReporter) Errorf(format string, args ...any) {
	r.logger.Error(fmt.Sprintf(format, args...))
}

func (r *logReporter) Notify(message string) {
	r.logger.Warn(message, slog.Bool("notify", true))
}

// NopReporter discards all reports.
type NopReporter struct{}

func (NopReporter) Errorf(string, ...any) {}

func (NopReporter) Notify(string) {}
