// Package reconciler implements the periodic sweep loop (§4.E) and
// the per-device reconcile decision shared with the event ingester.
package reconciler

import (
	"context"
	"time"

	"github.com/btmesh-io/btmesh-operator/internal/device"
	"github.com/btmesh-io/btmesh-operator/internal/dispatcher"
	"github.com/btmesh-io/btmesh-operator/internal/metrics"
	"github.com/btmesh-io/btmesh-operator/internal/registry"
	"github.com/btmesh-io/btmesh-operator/internal/roster"
	"github.com/btmesh-io/btmesh-operator/internal/wire"
	"github.com/btmesh-io/btmesh-operator/pkg/log"
)

// Reconciler drives device status toward spec on a fixed interval,
// grounded on the teacher's ticker-and-select garbage collector loop.
type Reconciler struct {
	Registry    registry.Registry
	Dispatcher  *dispatcher.Dispatcher
	Roster      *roster.Roster
	Application string
	Interval    time.Duration

	// IntervalFunc, if set, overrides Interval on every tick, letting
	// the sweep period follow a hot-reloaded config value.
	IntervalFunc func() time.Duration

	// Metrics is optional; when nil no counters/gauges are touched.
	Metrics *metrics.Metrics

	// Now is swappable in tests to make transition-time assertions exact.
	Now func() time.Time
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run blocks, sweeping every Interval until ctx is cancelled. When
// IntervalFunc is set, the timer is rearmed with its latest value
// after each sweep, so a config hot-reload takes effect on the next tick.
func (r *Reconciler) Run(ctx context.Context) error {
	log.Info("starting reconciler", "application", r.Application, "interval", r.interval())

	timer := time.NewTimer(r.interval())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			r.Sweep(ctx)
			timer.Reset(r.interval())
		case <-ctx.Done():
			log.Info("stopping reconciler")
			return nil
		}
	}
}

func (r *Reconciler) interval() time.Duration {
	if r.IntervalFunc != nil {
		if d := r.IntervalFunc(); d > 0 {
			return d
		}
	}
	return r.Interval
}

// Sweep performs one full iteration of §4.E: list, recompute roster,
// drive every spec'd device.
func (r *Reconciler) Sweep(ctx context.Context) {
	start := r.now()
	devices, err := r.Registry.ListDevices(ctx, r.Application)
	if err != nil {
		log.Warn("failed to list devices, treating as empty", "error", err.Error())
		devices = nil
	}

	names := gatewayNames(devices)
	r.Roster.Replace(names)

	for i := range devices {
		if _, ok := devices[i].BtmeshSpec(); !ok {
			continue
		}
		r.ReconcileDevice(ctx, &devices[i])
	}

	if r.Metrics != nil {
		r.Metrics.ReconcileTotal.Inc()
		r.Metrics.ReconcileDuration.Observe(r.now().Sub(start).Seconds())
		r.Metrics.GatewayRosterSize.Set(float64(len(names)))
	}
}

func gatewayNames(devices []device.Device) []string {
	names := make([]string, 0, len(devices))
	for i := range devices {
		if devices[i].IsGateway() {
			names = append(names, devices[i].Name)
		}
	}
	return names
}

// ReconcileDevice applies the per-device reconcile decision of §4.E,
// callable both from Sweep and, on demand, from the ingester's
// subject-"devices" handling (which does not recompute the roster).
func (r *Reconciler) ReconcileDevice(ctx context.Context, dev *device.Device) {
	spec, ok := dev.BtmeshSpec()
	if !ok {
		return
	}
	uuid := wire.CanonicalUUID(spec.Device)

	status := dev.BtmeshStatus()
	before := status.Conditions
	changed := device.EnsureAlias(dev, uuid)

	if !dev.IsTerminating() {
		changed = device.EnsureFinalizer(dev, device.OperatorFinalizer) || changed

		r.persist(ctx, dev, status, before, changed)

		if status.Address == nil {
			r.Dispatcher.PublishGateways(ctx, wire.ProvisionCommand(uuid))
		}
		return
	}

	r.persist(ctx, dev, status, before, changed)

	if status.Address != nil {
		r.Dispatcher.PublishGateways(ctx, wire.ResetCommand(dev.Name, *status.Address))
	}
}

// persist implements the update_device(dev, status, force) rule of
// §4.F: write and call the registry update only if force or the
// status actually differs from what's stored.
func (r *Reconciler) persist(ctx context.Context, dev *device.Device, status device.BtmeshStatus, prevConditions device.ConditionSet, force bool) {
	if !force && status.Conditions.Equal(prevConditions) {
		return
	}
	dev.SetBtmeshStatus(status)
	if err := r.Registry.UpdateDevice(ctx, *dev); err != nil {
		log.Warn("failed to update device", "device", dev.Name, "error", err.Error())
	}
}
