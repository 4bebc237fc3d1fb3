// Package health exposes a minimal readiness endpoint gated on the
// bus having completed its first connection.
package health

import (
	"net/http"
	"sync/atomic"
)

// Checker reports /healthz as ready once MarkReady has been called,
// e.g. after the bus's first successful AwaitConnection.
type Checker struct {
	ready atomic.Bool
}

// MarkReady flips the checker into the ready state. Idempotent.
func (c *Checker) MarkReady() {
	c.ready.Store(true)
}

// Handler serves 200 once ready, 503 otherwise.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
