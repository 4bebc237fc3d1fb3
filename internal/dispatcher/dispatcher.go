// Package dispatcher implements the command fan-out described in
// §4.D: publish a wire command to every gateway currently in the
// roster.
package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/btmesh-io/btmesh-operator/internal/bus"
	"github.com/btmesh-io/btmesh-operator/internal/metrics"
	"github.com/btmesh-io/btmesh-operator/internal/roster"
	"github.com/btmesh-io/btmesh-operator/internal/wire"
	"github.com/btmesh-io/btmesh-operator/pkg/log"
)

// Dispatcher publishes commands to the current gateway roster.
type Dispatcher struct {
	bus         *bus.Bus
	roster      *roster.Roster
	application string

	// Metrics is optional; when nil no counters are incremented.
	Metrics *metrics.Metrics
}

// New returns a dispatcher bound to a bus, roster, and application scope.
func New(b *bus.Bus, r *roster.Roster, application string) *Dispatcher {
	return &Dispatcher{bus: b, roster: r, application: application}
}

// opLabel names the command operation for the commands_published_total
// counter's "op" label.
func opLabel(cmd wire.Command) string {
	switch {
	case cmd.Command.Provision != nil:
		return "provision"
	case cmd.Command.Reset != nil:
		return "reset"
	default:
		return "unknown"
	}
}

// PublishGateways serializes cmd and publishes it to every gateway in
// a roster snapshot, in roster order (§5). Publish failures are
// logged, never retried; the next periodic sweep or event re-derives
// the command.
func (d *Dispatcher) PublishGateways(ctx context.Context, cmd wire.Command) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		log.Error(err, "failed to encode command, dropping fan-out")
		return
	}

	op := opLabel(cmd)
	for _, gw := range d.roster.Snapshot() {
		if err := d.bus.PublishCommand(ctx, d.application, gw, payload); err != nil {
			log.Warn("failed to publish command to gateway", "gateway", gw, "error", err.Error())
			if d.Metrics != nil {
				d.Metrics.PublishErrorsTotal.Inc()
			}
			continue
		}
		if d.Metrics != nil {
			d.Metrics.CommandsPublishedTotal.WithLabelValues(op).Inc()
		}
	}
}
