// Package ingester implements the event-driven ingestion loop of
// §4.F: subscribe to the application event stream, demux by
// CloudEvents subject, and merge gateway-reported state transitions
// back into the registry.
package ingester

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/tidwall/gjson"

	"github.com/btmesh-io/btmesh-operator/internal/bus"
	"github.com/btmesh-io/btmesh-operator/internal/device"
	"github.com/btmesh-io/btmesh-operator/internal/metrics"
	"github.com/btmesh-io/btmesh-operator/internal/reconciler"
	"github.com/btmesh-io/btmesh-operator/internal/registry"
	"github.com/btmesh-io/btmesh-operator/internal/wire"
	"github.com/btmesh-io/btmesh-operator/pkg/log"
)

// Ingester subscribes to the application's event stream and applies
// gateway-reported transitions.
type Ingester struct {
	Bus         *bus.Bus
	Registry    registry.Registry
	Reconciler  *reconciler.Reconciler
	Application string
	GroupID     string

	// Metrics is optional; when nil no counters are incremented.
	Metrics *metrics.Metrics

	Now func() time.Time
}

// Run subscribes and processes messages until ctx is cancelled or a
// malformed envelope is encountered, per §7's "break ingestion loop,
// operator exits" policy.
func (in *Ingester) Run(ctx context.Context) error {
	log.Info("starting ingester", "application", in.Application, "group_id", in.GroupID)

	ch, err := in.Bus.Subscribe(ctx, in.Application, in.GroupID)
	if err != nil {
		return fmt.Errorf("subscribe to event stream: %w", err)
	}

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := in.handle(ctx, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			log.Info("stopping ingester")
			return nil
		}
	}
}

func (in *Ingester) handle(ctx context.Context, msg bus.Message) error {
	ev := cloudevents.NewEvent()
	if err := ev.UnmarshalJSON(msg.Payload); err != nil {
		// gjson gives us a best-effort subject for the log line even
		// though the envelope failed full structured-mode decoding;
		// it's diagnostics only, never parsing authority.
		sniffedSubject := gjson.GetBytes(msg.Payload, "subject").String()
		log.Warn("malformed cloudevents envelope", "topic", msg.Topic, "sniffed_subject", sniffedSubject, "error", err.Error())
		return fmt.Errorf("malformed cloudevents envelope: %w", err)
	}

	switch ev.Subject() {
	case "devices":
		in.handleDevicesEvent(ctx)
	case "btmesh":
		in.handleBtmeshEvent(ctx, ev)
	default:
		// ignored
	}
	return nil
}

// handleDevicesEvent triggers a full reconciliation pass equivalent to
// §4.E steps 1 and 3, without touching the gateway roster.
func (in *Ingester) handleDevicesEvent(ctx context.Context) {
	devices, err := in.Registry.ListDevices(ctx, in.Application)
	if err != nil {
		log.Warn("failed to list devices for devices-subject event, treating as empty", "error", err.Error())
		return
	}
	for i := range devices {
		if _, ok := devices[i].BtmeshSpec(); !ok {
			continue
		}
		in.Reconciler.ReconcileDevice(ctx, &devices[i])
	}
}

func (in *Ingester) handleBtmeshEvent(ctx context.Context, ev cloudevents.Event) {
	var wireEvent wire.Event
	if err := ev.DataAs(&wireEvent); err != nil {
		log.Warn("malformed btmesh event payload, dropping", "error", err.Error())
		in.dropped("malformed_payload")
		return
	}

	deviceID := wireEvent.Status.Device()
	dev, ok := in.lookupDevice(ctx, deviceID)
	if !ok {
		log.Debug("dropping btmesh event for unknown device", "device", deviceID)
		in.dropped("unknown_device")
		return
	}

	updated := false
	if !dev.IsTerminating() {
		updated = device.EnsureFinalizer(&dev, device.OperatorFinalizer)
	}

	status := dev.BtmeshStatus()
	now := in.now()

	switch {
	case wireEvent.Status.Reset != nil:
		updated = in.applyReset(&dev, &status, wireEvent.Status.Reset, now) || updated
	case wireEvent.Status.Provisioned != nil:
		in.applyProvisioned(&dev, &status, wireEvent.Status.Provisioned, now)
		updated = true
	case wireEvent.Status.Provisioning != nil:
		in.applyProvisioning(&status, wireEvent.Status.Provisioning, now)
	}

	in.updateDevice(ctx, &dev, status, updated)
}

// lookupDevice resolves device by exact metadata.name match OR
// membership in spec.alias, per §4.B/§4.F.
func (in *Ingester) lookupDevice(ctx context.Context, name string) (device.Device, bool) {
	devices, err := in.Registry.ListDevices(ctx, in.Application)
	if err != nil {
		log.Warn("failed to list devices for event lookup, dropping event", "error", err.Error())
		return device.Device{}, false
	}
	for _, dev := range devices {
		if dev.Name == name {
			return dev, true
		}
		if device.HasAlias(&dev, name) {
			return dev, true
		}
	}
	return device.Device{}, false
}

// applyReset handles a reset event. A non-error reset is the only
// path that removes the finalizer, allowing registry deletion to
// complete. An error reset retains the finalizer for the next sweep
// to retry.
func (in *Ingester) applyReset(dev *device.Device, status *device.BtmeshStatus, r *wire.ResetState, now time.Time) bool {
	if r.Error != nil {
		status.Conditions.SetRecord(device.Provisioned, device.ConditionTrue, "Error resetting device", *r.Error, now)
		status.Conditions.SetBool(device.Provisioning, false, now)
		return true
	}
	status.Conditions.SetBool(device.Provisioned, false, now)
	status.Conditions.SetBool(device.Provisioning, false, now)
	device.RemoveFinalizer(dev, device.OperatorFinalizer)
	return true
}

// applyProvisioned handles a successful provisioning, pinning the
// address and ensuring its hex alias.
func (in *Ingester) applyProvisioned(dev *device.Device, status *device.BtmeshStatus, p *wire.ProvisionedState, now time.Time) {
	status.Conditions.SetBool(device.Provisioned, true, now)
	status.Conditions.SetBool(device.Provisioning, false, now)
	status.Address = &p.Address
	device.EnsureAlias(dev, wire.AddressAlias(p.Address))
}

// applyProvisioning handles a provisioning attempt report. Per the
// address-pinning invariant, this never fires once status.address is
// set: a provisioned device cannot move back to Provisioning. The
// Provisioned condition's status is left ConditionUnset when no error
// is reported, matching the observed source behavior of leaving it
// unset rather than clearing it.
func (in *Ingester) applyProvisioning(status *device.BtmeshStatus, p *wire.ProvisioningState, now time.Time) {
	if status.Address != nil {
		return
	}
	status.Conditions.SetBool(device.Provisioning, true, now)

	recordStatus := device.ConditionUnset
	reason, message := "", ""
	if p.Error != nil {
		recordStatus = device.ConditionFalse
		reason = "Error provisioning device"
		message = *p.Error
	}
	status.Conditions.SetRecord(device.Provisioned, recordStatus, reason, message, now)
}

// updateDevice implements the persist rule of §4.F: write and call
// the registry update only if force or the new status differs from
// what's stored.
func (in *Ingester) updateDevice(ctx context.Context, dev *device.Device, status device.BtmeshStatus, force bool) {
	current := dev.BtmeshStatus()
	if !force && status.Conditions.Equal(current.Conditions) && addressEqual(status.Address, current.Address) {
		return
	}
	dev.SetBtmeshStatus(status)
	if err := in.Registry.UpdateDevice(ctx, *dev); err != nil {
		log.Warn("failed to update device", "device", dev.Name, "error", err.Error())
	}
}

func addressEqual(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (in *Ingester) now() time.Time {
	if in.Now != nil {
		return in.Now()
	}
	return time.Now()
}

func (in *Ingester) dropped(reason string) {
	if in.Metrics != nil {
		in.Metrics.EventsDroppedTotal.WithLabelValues(reason).Inc()
	}
}
