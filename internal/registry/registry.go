// Package registry defines the collaborator interface the reconciler
// and ingester use to read and write device records. The concrete
// transport (a database, an API client, whatever backs the cloud-side
// device registry) is out of scope; only the narrow list/update
// contract named in §6 is specified here.
package registry

import (
	"context"

	"github.com/btmesh-io/btmesh-operator/internal/device"
)

// Registry lists and updates devices within one application scope.
type Registry interface {
	// ListDevices returns every device record in application. Transport
	// failures are the caller's responsibility to map to an empty set
	// per §7; this method returns the error unmodified.
	ListDevices(ctx context.Context, application string) ([]device.Device, error)

	// UpdateDevice persists dev's current state.
	UpdateDevice(ctx context.Context, dev device.Device) error
}
