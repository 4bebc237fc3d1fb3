// Package operator composes the reconciler and event ingester (§4.G),
// owning the gateway roster and the transport handles they share.
package operator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/btmesh-io/btmesh-operator/internal/bus"
	"github.com/btmesh-io/btmesh-operator/internal/dispatcher"
	"github.com/btmesh-io/btmesh-operator/internal/ingester"
	"github.com/btmesh-io/btmesh-operator/internal/metrics"
	"github.com/btmesh-io/btmesh-operator/internal/reconciler"
	"github.com/btmesh-io/btmesh-operator/internal/registry"
	"github.com/btmesh-io/btmesh-operator/internal/roster"
	"github.com/btmesh-io/btmesh-operator/pkg/log"
)

// Config carries the construction options named in §6's configuration table.
type Config struct {
	Application string
	GroupID     string
	Interval    time.Duration

	// IntervalFunc, if set, overrides Interval on every sweep tick —
	// wired to a hot-reloaded config value by cmd/btmesh-operator.
	IntervalFunc func() time.Duration
}

// Operator runs the reconciler and ingester concurrently for the
// lifetime of the process, returning on the first fatal error from
// either loop.
type Operator struct {
	cfg Config

	bus      *bus.Bus
	registry registry.Registry
	roster   *roster.Roster

	reconciler *reconciler.Reconciler
	ingester   *ingester.Ingester
}

// New wires a reconciler and ingester sharing one roster, one
// dispatcher, and the given bus/registry collaborators. m may be nil,
// in which case no metrics are recorded.
func New(cfg Config, b *bus.Bus, reg registry.Registry, m *metrics.Metrics) *Operator {
	r := roster.New()
	d := dispatcher.New(b, r, cfg.Application)
	d.Metrics = m

	rec := &reconciler.Reconciler{
		Registry:     reg,
		Dispatcher:   d,
		Roster:       r,
		Application:  cfg.Application,
		Interval:     cfg.Interval,
		IntervalFunc: cfg.IntervalFunc,
		Metrics:      m,
	}
	in := &ingester.Ingester{
		Bus:         b,
		Registry:    reg,
		Reconciler:  rec,
		Application: cfg.Application,
		GroupID:     cfg.GroupID,
		Metrics:     m,
	}

	return &Operator{
		cfg:        cfg,
		bus:        b,
		registry:   reg,
		roster:     r,
		reconciler: rec,
		ingester:   in,
	}
}

// Roster exposes the shared gateway roster, e.g. for the
// gateway_roster_size metrics gauge.
func (o *Operator) Roster() *roster.Roster {
	return o.roster
}

// Bus exposes the shared transport, e.g. for the health endpoint's
// AwaitConnection gate.
func (o *Operator) Bus() *bus.Bus {
	return o.bus
}

// Run starts the reconciler and ingester concurrently. It returns
// when ctx is cancelled, or immediately with the first fatal error
// either loop reports.
func (o *Operator) Run(ctx context.Context) error {
	log.Info("starting operator", "application", o.cfg.Application, "group_id", o.cfg.GroupID)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.reconciler.Run(ctx) })
	g.Go(func() error { return o.ingester.Run(ctx) })
	return g.Wait()
}
