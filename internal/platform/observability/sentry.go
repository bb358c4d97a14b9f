// Package observability wires error reporting.
package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry enables error reporting. An empty DSN leaves it disabled.
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
}

// FlushSentry waits briefly for buffered events before shutdown
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CapturePanic reports a recovered panic with request details
func CapturePanic(recovered interface{}, extras map[string]interface{}) {
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		scope.SetExtra("panic", recovered)
		if err, ok := recovered.(error); ok {
			sentry.CaptureException(err)
			return
		}
		sentry.CaptureMessage("panic in request")
	})
}
