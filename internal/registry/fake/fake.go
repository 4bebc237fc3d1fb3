// Package fake provides an in-memory registry.Registry for tests,
// grounded on the teacher's hal_mock.go pattern of a drop-in fake
// standing in for an external collaborator.
package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/btmesh-io/btmesh-operator/internal/device"
)

// Registry is an in-memory device store keyed by name.
type Registry struct {
	mu sync.Mutex

	devices map[string]device.Device

	listErr      error
	updateErr    error
	updateCalls  int
}

// New returns an empty fake registry.
func New() *Registry {
	return &Registry{devices: map[string]device.Device{}}
}

// Put seeds or overwrites a device record by name.
func (r *Registry) Put(dev device.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[dev.Name] = dev
}

// Get returns the current record for name.
func (r *Registry) Get(name string) (device.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[name]
	return dev, ok
}

// SetListError makes ListDevices fail with err.
func (r *Registry) SetListError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

// SetUpdateError makes UpdateDevice fail with err.
func (r *Registry) SetUpdateError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateErr = err
}

// UpdateCalls reports how many times UpdateDevice has succeeded or
// attempted (including failed attempts), for idempotence assertions
// like property 7 (zero update_device calls on a no-op sweep).
func (r *Registry) UpdateCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateCalls
}

func (r *Registry) ListDevices(ctx context.Context, application string) ([]device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]device.Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Registry) UpdateDevice(ctx context.Context, dev device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.devices[dev.Name]; !ok {
		return fmt.Errorf("device %q not found", dev.Name)
	}
	r.devices[dev.Name] = dev
	return nil
}
