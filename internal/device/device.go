// Package device provides read/patch helpers over a registry device
// record. The record itself is treated as opaque outside of the few
// projections the operator cares about: metadata (name, labels,
// finalizers, deletion timestamp) and two typed sections, "btmesh"
// (under spec and status) and "alias" (under spec).
package device

import (
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// OperatorFinalizer is the finalizer name this controller owns.
const OperatorFinalizer = "btmesh-operator"

// RoleLabel and GatewayRole identify gateway devices in the fleet.
const (
	RoleLabel   = "role"
	GatewayRole = "gateway"
)

// Sections is a named bag of raw JSON subsections, as found under a
// device record's "spec" or "status" field. Keeping it map[string]json.RawMessage
// lets the operator round-trip sections it never touches without
// needing to know their schema.
type Sections map[string]json.RawMessage

// Device is the operator's projection of a registry record. Fields not
// listed here (arbitrary spec/status sections it doesn't recognize) are
// preserved via Sections' raw-message values.
type Device struct {
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              Sections `json:"spec,omitempty"`
	Status            Sections `json:"status,omitempty"`
}

// GetSection decodes a named section, returning ok=false if the section
// is absent or does not match T's schema. A schema mismatch is never an
// error the caller must handle — per the registry-client contract it is
// indistinguishable from "absent".
func GetSection[T any](sections Sections, name string) (T, bool) {
	var zero T
	raw, ok := sections[name]
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

// SetSection encodes v and stores it under name, initializing the
// section map if necessary. Marshal errors on values constructed
// internally (never user-supplied) are not expected; they panic rather
// than silently drop status the caller believes was persisted.
func SetSection[T any](sections *Sections, name string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic("device: section " + name + " does not marshal: " + err.Error())
	}
	if *sections == nil {
		*sections = Sections{}
	}
	(*sections)[name] = raw
}

// IsTerminating reports whether the device has a deletion timestamp.
func (d *Device) IsTerminating() bool {
	return !d.DeletionTimestamp.IsZero()
}

// IsGateway reports whether the device's role label marks it as a
// BT-Mesh gateway.
func (d *Device) IsGateway() bool {
	return d.Labels[RoleLabel] == GatewayRole
}
