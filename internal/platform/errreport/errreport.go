package errreport

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

var (
	initialized bool
	enabled     bool
)

type Config struct {
	Enabled     bool
	DSN         string
	Environment string
	Release     string
}

// Init configures Sentry-backed error reporting. With no DSN, or when
// disabled, every capture becomes a no-op so call sites never need to check.
func Init(cfg Config) error {
	if !cfg.Enabled || cfg.DSN == "" {
		enabled = false
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}
			event.Tags["service"] = "lead-activity-feed"
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("errreport init: %w", err)
	}

	initialized = true
	enabled = true
	return nil
}

func IsEnabled() bool {
	return enabled && initialized
}

// CaptureError reports an error with extra context fields.
func CaptureError(err error, context map[string]any) {
	if !IsEnabled() || err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range context {
			scope.SetContext(key, map[string]any{key: value})
		}
		scope.SetLevel(sentry.LevelError)
		sentry.CaptureException(err)
	})
}

// Recover reports a recovered panic without re-panicking. Meant for deferred
// use in request handlers and pollers.
func Recover() {
	v := recover()
	if v == nil {
		return
	}
	if IsEnabled() {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelFatal)
			scope.SetContext("panic", map[string]any{
				"recovered_value": fmt.Sprintf("%v", v),
			})
			sentry.CaptureException(fmt.Errorf("panic recovered: %v", v))
		})
	}
}

// CapturePanicValue reports an already-recovered panic value.
func CapturePanicValue(v any) {
	if !IsEnabled() || v == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetContext("panic", map[string]any{
			"recovered_value": fmt.Sprintf("%v", v),
		})
		sentry.CaptureException(fmt.Errorf("panic recovered: %v", v))
	})
}

func Flush(timeout time.Duration) bool {
	if !IsEnabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// Close flushes pending events before shutdown.
func Close() {
	if !IsEnabled() {
		return
	}
	Flush(2 * time.Second)
}
